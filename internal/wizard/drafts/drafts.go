// Package drafts keeps wizard snapshots in Redis, one key per session.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"subsidy-wizard/internal/wizard/state"
)

const (
	DefaultPrefix = "wizard:draft:"
	DefaultTTL    = 30 * 24 * time.Hour
)

var ErrEmptySession = errors.New("drafts: empty session id")

// Store hands out per-session persisters. Reading a draft slides its expiry.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) Key(sessionID string) string {
	return s.prefix + sessionID
}

// For returns the persister of one session.
func (s *Store) For(sessionID string) (state.Persister, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	return &sessionDraft{store: s, key: s.Key(sessionID)}, nil
}

func (s *Store) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check draft %s: %w", sessionID, err)
	}
	return n > 0, nil
}

type sessionDraft struct {
	store *Store
	key   string
}

func (d *sessionDraft) Save(ctx context.Context, data []byte) error {
	if err := d.store.client.Set(ctx, d.key, data, d.store.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load returns nil data when no draft is stored.
func (d *sessionDraft) Load(ctx context.Context) ([]byte, error) {
	data, err := d.store.client.GetEx(ctx, d.key, d.store.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return data, nil
}

func (d *sessionDraft) Clear(ctx context.Context) error {
	if err := d.store.client.Del(ctx, d.key).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
