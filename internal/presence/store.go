package presence

// Package presence implements the shared registry that maps a user to their
// live socket connection and back.  Both halves of the mapping live in Redis
// so that any backend replica can resolve or mutate them: game invites and
// notification fan-out reach a user's socket from request paths that never
// touched the connection itself.
//
// All mutations run as server-side Lua scripts.  Redis executes a script as
// a single atomic unit, which gives us the read-compare-write sequence the
// eviction logic needs without client-side retries: a delayed disconnect for
// a superseded socket can never clobber the entry a newer connect just wrote,
// because the forward entry is only deleted when it still points at the
// disconnecting socket.

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Key layout.  The forward entry is a hash so individual fields (e.g. a
// future away/busy status) can evolve without rewriting the whole record.
const (
	userKeyPrefix   = "presence:user:"   // forward: user id -> {socket_id, session_id, status}
	socketKeyPrefix = "presence:socket:" // reverse: socket id -> user id
)

// Online is the only status written today; offline users simply have no
// entry.
const Online = "online"

// ErrNotFound is returned when no mapping exists for the queried user or
// socket.  Callers treat it as "user offline", not as a hard failure.
var ErrNotFound = errors.New("presence: not found")

// Entry is the forward presence record for one user.
type Entry struct {
	SocketID  string
	SessionID string
	Status    string
}

// registerScript atomically replaces a user's presence pair.  It reads the
// current socket id, drops that socket's reverse key, then writes the new
// forward hash and reverse key in the same script invocation.  The previous
// socket id is returned ("" when the user was offline) so the caller can
// force-disconnect the superseded connection.
var registerScript = redis.NewScript(`
    local prev = redis.call('HGET', KEYS[1], 'socket_id')
    if prev and prev ~= ARGV[2] then
        redis.call('DEL', ARGV[4] .. prev)
    end
    redis.call('HSET', KEYS[1], 'socket_id', ARGV[2], 'session_id', ARGV[3], 'status', 'online')
    redis.call('SET', KEYS[2], ARGV[1])
    if prev then
        return prev
    end
    return ''
`)

// removeScript deletes a socket's presence pair.  The forward entry is only
// removed when it still references the disconnecting socket; if eviction has
// already rebound the user to a newer socket, only the (stale) reverse key
// is cleared and the newer entry is left intact.
var removeScript = redis.NewScript(`
    local uid = redis.call('GET', KEYS[1])
    if not uid then
        return ''
    end
    redis.call('DEL', KEYS[1])
    local fkey = ARGV[2] .. uid
    if redis.call('HGET', fkey, 'socket_id') == ARGV[1] then
        redis.call('DEL', fkey)
    end
    return uid
`)

// Store provides atomic access to the presence registry.
type Store struct {
	rdb *redis.Client
}

// New returns a Store bound to the provided Redis client.
func New(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Register binds userID to socketID/sessionID and returns the socket id the
// user was previously bound to, or "" when there was none.  The forward and
// reverse entries are written as one unit; a failure writes nothing.
func (s *Store) Register(ctx context.Context, userID uint64, socketID, sessionID string) (string, error) {
	uid := strconv.FormatUint(userID, 10)
	keys := []string{userKeyPrefix + uid, socketKeyPrefix + socketID}
	prev, err := registerScript.Run(ctx, s.rdb, keys, uid, socketID, sessionID, socketKeyPrefix).Text()
	if err != nil {
		return "", err
	}
	return prev, nil
}

// Remove deletes the presence pair for socketID.  It returns the owning
// user id, or ErrNotFound when the socket is unknown, which is expected
// after an eviction already cleared it and must not be treated as failure.
func (s *Store) Remove(ctx context.Context, socketID string) (uint64, error) {
	keys := []string{socketKeyPrefix + socketID}
	uid, err := removeScript.Run(ctx, s.rdb, keys, socketID, userKeyPrefix).Text()
	if err != nil {
		return 0, err
	}
	if uid == "" {
		return 0, ErrNotFound
	}
	return strconv.ParseUint(uid, 10, 64)
}

// GetByUser reads the forward entry for userID.
func (s *Store) GetByUser(ctx context.Context, userID uint64) (Entry, error) {
	uid := strconv.FormatUint(userID, 10)
	vals, err := s.rdb.HGetAll(ctx, userKeyPrefix+uid).Result()
	if err != nil {
		return Entry{}, err
	}
	if len(vals) == 0 || vals["socket_id"] == "" {
		return Entry{}, ErrNotFound
	}
	return Entry{
		SocketID:  vals["socket_id"],
		SessionID: vals["session_id"],
		Status:    vals["status"],
	}, nil
}

// GetUserBySocket reads the reverse entry for socketID.
func (s *Store) GetUserBySocket(ctx context.Context, socketID string) (uint64, error) {
	uid, err := s.rdb.Get(ctx, socketKeyPrefix+socketID).Result()
	if err == redis.Nil {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(uid, 10, 64)
}
