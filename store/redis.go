package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps failed Redis calls so callers can classify
// storage outages as internal errors.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "al"

// createUserScript claims the email index entry and writes the user hash
// in one atomic step. Returns 0 when the email is already taken.
const createUserScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "email", ARGV[2],
  "password_hash", ARGV[3],
  "display_name", ARGV[4],
  "avatar_ref", ARGV[5],
  "created_at", ARGV[6])
return 1
`

// recordTokenScript appends a refresh token to the ledger of an existing
// user, scored by its expiry. Dead entries are swept first so abandoned
// sessions do not grow the ledger without bound. Returns -1 when the
// user document is gone.
const recordTokenScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
redis.call("ZREMRANGEBYSCORE", KEYS[2], "-inf", ARGV[3])
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[1])
return 1
`

// consumeTokenScript spends a refresh token, sweeping expired entries
// first. Exactly one of the statuses is returned:
//
//	-1 — user document missing
//	 0 — token absent or expired: ledger cleared (replay containment)
//	 1 — token removed, caller may continue
const consumeTokenScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
redis.call("ZREMRANGEBYSCORE", KEYS[2], "-inf", ARGV[2])
if redis.call("ZREM", KEYS[2], ARGV[1]) == 1 then
  return 1
end
redis.call("DEL", KEYS[2])
return 0
`

var (
	createUserLua   = redis.NewScript(createUserScript)
	recordTokenLua  = redis.NewScript(recordTokenScript)
	consumeTokenLua = redis.NewScript(consumeTokenScript)
)

// Redis implements [UserRepository] on a Redis document layout.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed repository. An empty prefix falls back
// to "al".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) userKey(id string) string     { return r.prefix + ":user:" + id }
func (r *Redis) ledgerKey(id string) string   { return r.prefix + ":user:" + id + ":rt" }
func (r *Redis) emailKey(email string) string { return r.prefix + ":email:" + email }

func nowScore() string { return strconv.FormatInt(time.Now().Unix(), 10) }

// Create assigns an ID and persists the user with an empty ledger.
// Duplicate emails fail with [ErrEmailTaken].
func (r *Redis) Create(ctx context.Context, input CreateUserInput) (User, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	status, err := createUserLua.Run(ctx, r.client,
		[]string{r.emailKey(input.Email), r.userKey(id)},
		id,
		input.Email,
		input.PasswordHash,
		input.DisplayName,
		input.AvatarRef,
		strconv.FormatInt(createdAt.Unix(), 10),
	).Int64()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if status == 0 {
		return User{}, ErrEmailTaken
	}

	return User{
		ID:           id,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		DisplayName:  input.DisplayName,
		AvatarRef:    input.AvatarRef,
		CreatedAt:    createdAt,
	}, nil
}

// FindByEmail resolves the email index, then loads the document. Lookup
// is exact-match on the stored email.
func (r *Redis) FindByEmail(ctx context.Context, email string) (User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return r.FindByID(ctx, id)
}

// FindByID loads the user document and its ledger.
func (r *Redis) FindByID(ctx context.Context, id string) (User, error) {
	fields, err := r.client.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return User{}, ErrUserNotFound
	}

	// Expired entries may still sit in the ledger until the next write
	// sweeps them; exclude them from the read instead.
	tokens, err := r.client.ZRangeByScore(ctx, r.ledgerKey(id), &redis.ZRangeBy{
		Min: "(" + nowScore(),
		Max: "+inf",
	}).Result()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return r.hydrate(id, fields, tokens), nil
}

// RecordRefreshToken appends token to the user's ledger with its expiry
// as the score, so the ledger can be swept without parsing tokens.
func (r *Redis) RecordRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	status, err := recordTokenLua.Run(ctx, r.client,
		[]string{r.userKey(userID), r.ledgerKey(userID)},
		token,
		strconv.FormatInt(expiresAt.Unix(), 10),
		nowScore(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if status == -1 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumeRefreshToken spends token. A token absent from the ledger clears
// the whole ledger and fails with [ErrTokenReused]; the clear has already
// happened when the error is returned.
func (r *Redis) ConsumeRefreshToken(ctx context.Context, userID, token string) (User, error) {
	status, err := consumeTokenLua.Run(ctx, r.client,
		[]string{r.userKey(userID), r.ledgerKey(userID)},
		token,
		nowScore(),
	).Int64()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case -1:
		return User{}, ErrUserNotFound
	case 0:
		return User{}, ErrTokenReused
	}

	return r.FindByID(ctx, userID)
}

func (r *Redis) hydrate(id string, fields map[string]string, tokens []string) User {
	user := User{
		ID:            id,
		Email:         fields["email"],
		PasswordHash:  fields["password_hash"],
		DisplayName:   fields["display_name"],
		AvatarRef:     fields["avatar_ref"],
		RefreshTokens: tokens,
	}
	if raw, ok := fields["created_at"]; ok {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			user.CreatedAt = time.Unix(sec, 0).UTC()
		}
	}
	return user
}
