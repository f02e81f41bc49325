// Package auth validates host credentials on the HTTP surface.
package auth

import (
	"context"
	"crypto/subtle"
)

// StaticKeyValidator implements domain.APIKeyValidator against a fixed
// set of keys from configuration. The sidecar has exactly one client
// (the bot host), so there is no key store to consult.
type StaticKeyValidator struct {
	keys []string
}

// NewStaticKeyValidator creates a validator for the given keys. Empty
// keys are ignored.
func NewStaticKeyValidator(keys ...string) *StaticKeyValidator {
	v := &StaticKeyValidator{}
	for _, key := range keys {
		if key != "" {
			v.keys = append(v.keys, key)
		}
	}
	return v
}

// IsValid reports whether the key matches one of the configured keys.
func (v *StaticKeyValidator) IsValid(ctx context.Context, key string) (bool, error) {
	for _, configured := range v.keys {
		if subtle.ConstantTimeCompare([]byte(configured), []byte(key)) == 1 {
			return true, nil
		}
	}
	return false, nil
}
