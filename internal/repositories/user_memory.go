package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/localbite/internal/models"
)

// UserMemoryRepository keeps credential records in process memory.
// It is used for local development and tests.
type UserMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

// NewUserMemoryRepository creates an empty in-memory repository.
func NewUserMemoryRepository() *UserMemoryRepository {
	return &UserMemoryRepository{byEmail: make(map[string]models.User)}
}

// FindByEmail returns the record for email, or nil if there is none.
func (r *UserMemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("find user", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Create inserts a new record. The check and insert happen under one lock.
func (r *UserMemoryRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("create user", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return nil, ErrAlreadyExists
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.byEmail[email] = user
	return &user, nil
}

// Ping always succeeds.
func (r *UserMemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Count returns the number of stored records.
func (r *UserMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
