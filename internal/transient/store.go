// Package transient carries rejected form input across the post/redirect/get
// cycle. Entries live in the settings table with a short expiry and are
// removed on first read.
package transient

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"infocollect/internal/logger"
	"infocollect/internal/repository"
)

const (
	// keyPrefix is the prefix for transient entry keys in settings
	keyPrefix = "transient.form_errors."
	// expiresSuffix is the suffix for entry expiration time keys
	expiresSuffix = ".expires"

	// DefaultTTL bounds how long rejected input survives an unread redirect.
	DefaultTTL = 60 * time.Second
)

// FormState is the validation outcome carried back to the form page.
type FormState struct {
	Errors map[string]string `json:"errors"`
	Values map[string]string `json:"values"`
}

// Store manages transient form-state persistence in the database.
type Store struct {
	settings repository.SettingsRepository
}

// NewStore creates a new transient store.
func NewStore(settings repository.SettingsRepository) *Store {
	return &Store{settings: settings}
}

// NewToken derives an entry token from the redirect destination and the
// current time.
func NewToken(destination string, now time.Time) string {
	sum := md5.Sum([]byte(destination + strconv.FormatInt(now.UnixNano(), 10)))
	return hex.EncodeToString(sum[:])
}

// Put stores the form state under the token with the given TTL.
func (s *Store) Put(ctx context.Context, token string, state FormState, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form state: %w", err)
	}

	if err := s.settings.Set(ctx, keyPrefix+token, string(payload)); err != nil {
		return fmt.Errorf("store form state: %w", err)
	}
	expires := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	if err := s.settings.Set(ctx, keyPrefix+token+expiresSuffix, expires); err != nil {
		return fmt.Errorf("store form state expiry: %w", err)
	}
	return nil
}

// Take retrieves and deletes the form state for the token.
// Returns nil when the token is unknown or the entry has expired.
func (s *Store) Take(ctx context.Context, token string) (*FormState, error) {
	expiresSetting, err := s.settings.Get(ctx, keyPrefix+token+expiresSuffix)
	if err != nil {
		return nil, fmt.Errorf("get expiry: %w", err)
	}
	if expiresSetting == nil {
		return nil, nil
	}

	expiresAt, err := time.Parse(time.RFC3339, expiresSetting.Value)
	if err != nil || time.Now().After(expiresAt) {
		// Expired or unreadable, clean up
		s.delete(ctx, token)
		return nil, nil
	}

	stateSetting, err := s.settings.Get(ctx, keyPrefix+token)
	if err != nil {
		return nil, fmt.Errorf("get form state: %w", err)
	}
	if stateSetting == nil {
		return nil, nil
	}

	var state FormState
	if err := json.Unmarshal([]byte(stateSetting.Value), &state); err != nil {
		s.delete(ctx, token)
		return nil, fmt.Errorf("decode form state: %w", err)
	}

	// First read consumes the entry
	s.delete(ctx, token)
	return &state, nil
}

func (s *Store) delete(ctx context.Context, token string) {
	if _, err := s.settings.DeleteByPrefix(ctx, keyPrefix+token); err != nil {
		logger.Warn("transient cleanup failed",
			"module", "transient", "action", "delete", "resource", "settings", "result", "failed",
			"error", err)
	}
}
