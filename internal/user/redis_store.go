package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// createScript inserts the user hash and both uniqueness index keys in one
// atomic step. KEYS: user hash, email index, username index.
// ARGV: user id followed by the hash field/value pairs.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 'email'
end
if redis.call('EXISTS', KEYS[3]) == 1 then
	return 'username'
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[3], ARGV[1])
return 'ok'
`)

// RedisStore keeps each user as a hash with string index keys for email
// and username.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func emailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func usernameKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

func (s *RedisStore) Create(ctx context.Context, u *User) error {
	prepare(u)
	id := u.ID.String()

	args := []any{id}
	args = append(args, toRedisFields(u)...)

	res, err := createScript.Run(ctx, s.client,
		[]string{userKey(id), emailKey(u.Email), usernameKey(u.Username)},
		args...,
	).Text()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	switch res {
	case "ok":
		return nil
	case "email":
		return ErrDuplicateEmail
	case "username":
		return ErrDuplicateUsername
	default:
		return fmt.Errorf("failed to create user: unexpected script result %q", res)
	}
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getByIndex(ctx, emailKey(NormalizeEmail(email)))
}

func (s *RedisStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getByIndex(ctx, usernameKey(username))
}

func (s *RedisStore) MarkConfirmed(ctx context.Context, username string) (*User, error) {
	id, err := s.resolve(ctx, usernameKey(username))
	if err != nil {
		return nil, err
	}

	err = s.client.HSet(ctx, userKey(id),
		"isConfirmed", "1",
		"updatedAt", time.Now().UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}

	return s.load(ctx, id)
}

func (s *RedisStore) getByIndex(ctx context.Context, indexKey string) (*User, error) {
	id, err := s.resolve(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *RedisStore) resolve(ctx context.Context, indexKey string) (string, error) {
	id, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve user index: %w", err)
	}
	return id, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*User, error) {
	data, err := s.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return fromRedisFields(data)
}

func toRedisFields(u *User) []any {
	confirmed := "0"
	if u.IsConfirmed {
		confirmed = "1"
	}
	return []any{
		"id", u.ID.String(),
		"firstName", u.FirstName,
		"lastName", u.LastName,
		"username", u.Username,
		"email", u.Email,
		"password", u.PasswordHash,
		"isConfirmed", confirmed,
		"createdAt", u.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt", u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fromRedisFields(data map[string]string) (*User, error) {
	id, err := uuid.Parse(data["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", data["id"], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, data["createdAt"])
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, data["updatedAt"])
	if err != nil {
		return nil, fmt.Errorf("invalid updatedAt: %w", err)
	}

	return &User{
		ID:           id,
		FirstName:    data["firstName"],
		LastName:     data["lastName"],
		Username:     data["username"],
		Email:        data["email"],
		PasswordHash: data["password"],
		IsConfirmed:  data["isConfirmed"] == "1",
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
