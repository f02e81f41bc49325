// Package spool implements the file-backed fallback buffer used while
// Redis is unreachable. Lines are appended to NDJSON segment files that
// rotate at a size threshold and are replayed in order on recovery.
package spool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/psbotkit/scribe/internal/domain"
)

const (
	segmentPrefix = "segment-"
	filePerm      = 0644
)

// Spool implements domain.Spool.
type Spool struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu          sync.Mutex
	segment     *os.File
	segmentSize int64
	totalSize   int64
}

// New opens the spool directory, resuming the newest existing segment.
func New(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory %s: %w", dir, err)
	}

	s := &Spool{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "spool"),
	}
	if err := s.resume(); err != nil {
		return nil, err
	}
	return s, nil
}

// Write appends a chat line to the current segment. It fails once the
// spool directory would grow past its disk budget.
func (s *Spool) Write(ctx context.Context, line domain.ChatLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal chat line for spool: %w", err)
	}
	data = append(data, '\n')

	if s.totalSize+int64(len(data)) > s.maxTotalSize {
		return fmt.Errorf("spool disk budget exceeded (%d + %d > %d)", s.totalSize, len(data), s.maxTotalSize)
	}
	if s.segment == nil {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.segment.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to spool segment: %w", err)
	}
	s.segmentSize += int64(n)
	s.totalSize += int64(n)

	if s.segmentSize >= s.maxSegmentSize {
		if err := s.rotate(); err != nil {
			s.logger.Error("failed to rotate spool segment", "error", err)
		}
	}
	return nil
}

// Replay feeds every spooled line, oldest segment first, to the
// handler. The spool is left intact; call Truncate after a successful
// replay.
func (s *Spool) Replay(ctx context.Context, handler func(line domain.ChatLine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeSegment()

	segments, err := s.sortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		s.logger.Info("spool is empty, nothing to replay")
		return nil
	}
	s.logger.Info("starting spool replay", "segment_count", len(segments))

	for _, path := range segments {
		if err := s.replaySegment(ctx, path, handler); err != nil {
			return err
		}
	}
	s.logger.Info("spool replay completed")
	return nil
}

func (s *Spool) replaySegment(ctx context.Context, path string, handler func(line domain.ChatLine) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment %s for replay: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var line domain.ChatLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			s.logger.Warn("failed to unmarshal spooled line, skipping", "error", err)
			continue
		}
		if err := handler(line); err != nil {
			return fmt.Errorf("replay handler failed: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return nil
}

// Truncate removes all segment files and starts a fresh one.
func (s *Spool) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeSegment()

	segments, err := s.sortedSegments()
	if err != nil {
		return err
	}
	for _, path := range segments {
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to remove spool segment", "path", path, "error", err)
		}
	}
	s.totalSize = 0
	s.logger.Info("spool truncated")
	return s.rotate()
}

// Close flushes and closes the current segment.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.segment == nil {
		return nil
	}
	err := s.segment.Close()
	s.segment = nil
	return err
}

func (s *Spool) closeSegment() {
	if s.segment == nil {
		return
	}
	if err := s.segment.Sync(); err != nil {
		s.logger.Error("failed to sync spool segment", "error", err)
	}
	if err := s.segment.Close(); err != nil {
		s.logger.Error("failed to close spool segment", "error", err)
	}
	s.segment = nil
}

func (s *Spool) rotate() error {
	s.closeSegment()

	name := fmt.Sprintf("%s%d.ndjson", segmentPrefix, time.Now().UnixNano())
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create spool segment %s: %w", path, err)
	}

	s.segment = f
	s.segmentSize = 0
	return nil
}

// resume reopens the newest existing segment, or starts a fresh one,
// and seeds the tracked total size from disk.
func (s *Spool) resume() error {
	segments, err := s.sortedSegments()
	if err != nil {
		return err
	}

	s.totalSize = 0
	for _, path := range segments {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat segment %s: %w", path, err)
		}
		s.totalSize += info.Size()
	}

	if len(segments) == 0 {
		return s.rotate()
	}

	latest := segments[len(segments)-1]
	info, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latest, err)
	}
	if info.Size() >= s.maxSegmentSize {
		return s.rotate()
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latest, err)
	}
	s.segment = f
	s.segmentSize = info.Size()
	s.logger.Info("resumed spool segment", "path", latest, "size", s.segmentSize)
	return nil
}

func (s *Spool) sortedSegments() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			segments = append(segments, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}
