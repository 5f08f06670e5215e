package session

// Package session implements the HTTP session authority.  Session records
// live in Redis rather than process memory because the single-active-session
// rule is a cross-replica invariant: a login handled by one replica must
// invalidate the session a different replica issued earlier.
//
// Two keys exist per identity: the record itself (keyed by token, with TTL)
// and a pointer from the user id to their currently active token.  Create
// repoints the pointer and deletes the superseded record in one Lua script,
// so there is never a window with two valid tokens for the same user.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pong-social/internal/utils"
)

const (
	recordKeyPrefix  = "session:"      // session:<token> -> JSON record
	pointerKeyPrefix = "session:user:" // session:user:<id> -> active token
)

// ErrNotAuthenticated is returned for missing, expired, or superseded
// tokens.  Handlers translate it into a 401 response; the socket gateway
// closes the connection without a payload.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// ErrDestroy wraps a session-store failure during logout.  The record and
// pointer are deleted in one script, so even on failure no partial state is
// left behind.
var ErrDestroy = errors.New("session: destroy failed")

// Record is the value stored per session token.
type Record struct {
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// createScript writes the new record, repoints the user's active-token
// pointer, and deletes the superseded record atomically, so the old token
// is invalid the instant the new one exists.
var createScript = redis.NewScript(`
    local old = redis.call('GET', KEYS[2])
    if old and old ~= ARGV[3] then
        redis.call('DEL', ARGV[4] .. old)
    end
    redis.call('SET', KEYS[2], ARGV[3], 'EX', ARGV[2])
    redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
    return 1
`)

// destroyScript deletes the record and clears the pointer only while it
// still references this token.
var destroyScript = redis.NewScript(`
    local n = redis.call('DEL', KEYS[1])
    if redis.call('GET', KEYS[2]) == ARGV[1] then
        redis.call('DEL', KEYS[2])
    end
    return n
`)

// Store issues and validates session tokens.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Store with the given record time-to-live.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Create issues a fresh token for userID and supersedes any existing one.
// The token is 48 bytes of crypto/rand encoded as 96 hex characters; the
// HTTP layer sets it as an HttpOnly cookie.
func (s *Store) Create(ctx context.Context, userID uint64) (string, error) {
	token, err := utils.RandomHex(48)
	if err != nil {
		return "", err
	}
	rec, err := json.Marshal(Record{UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	uid := fmt.Sprintf("%d", userID)
	keys := []string{recordKeyPrefix + token, pointerKeyPrefix + uid}
	ttlSec := int64(s.ttl / time.Second)
	if err := createScript.Run(ctx, s.rdb, keys, rec, ttlSec, token, recordKeyPrefix).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a token to its user id.  A token that exists but is no
// longer the user's active one (superseded by a newer login) fails exactly
// like a missing token, closing the replay window.
func (s *Store) Validate(ctx context.Context, token string) (uint64, error) {
	if token == "" {
		return 0, ErrNotAuthenticated
	}
	raw, err := s.rdb.Get(ctx, recordKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrNotAuthenticated
	}
	if err != nil {
		return 0, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return 0, ErrNotAuthenticated
	}
	uid := fmt.Sprintf("%d", rec.UserID)
	active, err := s.rdb.Get(ctx, pointerKeyPrefix+uid).Result()
	if err == redis.Nil || (err == nil && active != token) {
		return 0, ErrNotAuthenticated
	}
	if err != nil {
		return 0, err
	}
	return rec.UserID, nil
}

// Destroy invalidates the token.  Destroying an unknown token returns
// ErrNotAuthenticated; a backend failure is wrapped in ErrDestroy for the
// handler to surface while logging.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	rec, err := s.peek(ctx, token)
	if err != nil {
		return err
	}
	uid := fmt.Sprintf("%d", rec.UserID)
	keys := []string{recordKeyPrefix + token, pointerKeyPrefix + uid}
	n, err := destroyScript.Run(ctx, s.rdb, keys, token).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDestroy, err)
	}
	if n == 0 {
		return ErrNotAuthenticated
	}
	return nil
}

// peek reads a record without checking the active pointer; Destroy must be
// able to clean up superseded tokens too.
func (s *Store) peek(ctx context.Context, token string) (Record, error) {
	raw, err := s.rdb.Get(ctx, recordKeyPrefix+token).Result()
	if err == redis.Nil {
		return Record{}, ErrNotAuthenticated
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrDestroy, err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, ErrNotAuthenticated
	}
	return rec, nil
}
