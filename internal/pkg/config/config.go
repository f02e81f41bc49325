package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"@"`

	// Chatlog store. Driver is "sqlite" or "postgres".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"scribe.db"`
	PostgresURL string `env:"POSTGRES_URL"`

	// Line buffer.
	RedisAddr      string `env:"REDIS_ADDR,required"`
	RedisDLQStream string `env:"REDIS_DLQ_STREAM" envDefault:"chat_lines_dlq"`

	// File spool used while Redis is unreachable.
	SpoolPath        string `env:"SPOOL_PATH" envDefault:"./spool"`
	SpoolSegmentSize int64  `env:"SPOOL_SEGMENT_SIZE_BYTES" envDefault:"104857600"` // 100MB
	SpoolMaxDiskSize int64  `env:"SPOOL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB

	// HTTP surface.
	APIKey      string `env:"API_KEY,required"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	AdminAddr   string `env:"ADMIN_ADDR" envDefault:":9091"`
	MaxBodySize int64  `env:"MAX_BODY_SIZE_BYTES" envDefault:"1048576"` // 1MB

	// Rooms the bot sits in, comma separated, and the minimum rank
	// required to search their logs.
	Rooms         string `env:"ROOMS" envDefault:""`
	SearchLogRank string `env:"SEARCHLOG_RANK" envDefault:"%"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RoomList splits the configured room string into room names.
func (c *Config) RoomList() []string {
	if strings.TrimSpace(c.Rooms) == "" {
		return nil
	}
	return strings.Split(c.Rooms, ",")
}
