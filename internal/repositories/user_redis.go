package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
)

const userKeyPrefix = "user:email:"

// redisRecord is the JSON value stored under a user key.
type redisRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRedisRepository stores one key per email. SETNX makes the first
// writer win, so the key itself is the uniqueness constraint.
type UserRedisRepository struct {
	client  *redis.Client
	timeout time.Duration
}

// NewUserRedisRepository creates a repository over client.
func NewUserRedisRepository(client *redis.Client, timeout time.Duration) *UserRedisRepository {
	return &UserRedisRepository{client: client, timeout: timeout}
}

func userKey(email string) string {
	return userKeyPrefix + email
}

// FindByEmail returns the record for email, or nil if there is none.
func (r *UserRedisRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	key := userKey(email)
	val, err := r.client.Get(ctx, key).Bytes()

	logger.Log.Infow("find user",
		"key", key,
		"found", err == nil,
		"error", err,
	)

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("find user", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, unavailable("decode user", err)
	}

	return &models.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Create stores a new record unless the key already exists.
func (r *UserRedisRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rec := redisRecord{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	key := userKey(email)
	ok, err := r.client.SetNX(ctx, key, data, 0).Result()

	logger.Log.Infow("create user",
		"key", key,
		"id", rec.ID,
		"created", ok,
		"error", err,
	)

	if err != nil {
		return nil, unavailable("create user", err)
	}
	if !ok {
		return nil, ErrAlreadyExists
	}

	return &models.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Ping checks connectivity.
func (r *UserRedisRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
