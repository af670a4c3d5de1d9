package services

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sbilibin2017/localbite/internal/hasher"
	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/repositories"
	"github.com/segmentio/kafka-go"
)

// Error variables
var (
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserReader defines read-only operations for credential records.
type UserReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserWriter defines write operations for credential records.
type UserWriter interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID, email string) (string, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AuthService handles registration and login. It keeps no state between
// calls; uniqueness of emails is left to the store.
type AuthService struct {
	reader      UserReader
	writer      UserWriter
	hasher      PasswordHasher
	jwt         JWTGenerator
	kafkaWriter KafkaWriter
}

// NewAuthService creates a new AuthService instance. kafkaWriter may be nil,
// in which case registration events are not published.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	hasher PasswordHasher,
	jwt JWTGenerator,
	kafkaWriter KafkaWriter,
) *AuthService {
	return &AuthService{
		reader:      reader,
		writer:      writer,
		hasher:      hasher,
		jwt:         jwt,
		kafkaWriter: kafkaWriter,
	}
}

// normalizeEmail trims surrounding spaces and lowercases email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. It returns ErrDuplicateAccount when the
// email is taken, including when a concurrent registration wins the insert.
func (svc *AuthService) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	existing, err := svc.reader.FindByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "email", email, "err", err)
		return fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		logger.Log.Infow("user already exists", "email", email)
		return ErrDuplicateAccount
	}

	hash, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := svc.writer.Create(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			logger.Log.Infow("user created concurrently", "email", email)
			return ErrDuplicateAccount
		}
		logger.Log.Errorw("failed to save user", "email", email, "err", err)
		return fmt.Errorf("create user: %w", err)
	}

	logger.Log.Infow("user registered", "id", user.ID, "email", user.Email)
	svc.publishUserRegistered(ctx, user)

	return nil
}

// Login verifies the credentials and returns a signed token together with
// the public projection of the account. A missing account and a wrong
// password both yield ErrInvalidCredentials.
func (svc *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = normalizeEmail(email)

	user, err := svc.reader.FindByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "email", email, "err", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		logger.Log.Infow("login for unknown email", "email", email)
		return nil, ErrInvalidCredentials
	}

	if err := svc.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, hasher.ErrMismatch) {
			logger.Log.Infow("invalid password", "email", email)
			return nil, ErrInvalidCredentials
		}
		logger.Log.Errorw("failed to compare password", "id", user.ID, "err", err)
		return nil, fmt.Errorf("compare password: %w", err)
	}

	token, err := svc.jwt.Generate(ctx, user.ID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "id", user.ID, "err", err)
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &models.LoginResult{
		Token: token,
		User:  user.Public(),
	}, nil
}

// publishUserRegistered sends a user.registered event. Failures are logged
// and never undo the registration.
func (svc *AuthService) publishUserRegistered(ctx context.Context, user *models.User) {
	if svc.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "id", user.ID)
		return
	}

	event := models.UserRegistered{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Timestamp: user.CreatedAt.Unix(),
	}
	if event.Timestamp <= 0 {
		event.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal user registered event", "id", user.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(user.ID),
		Value: data,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish user registered event", "id", user.ID, "error", err)
		return
	}
	logger.Log.Infow("user registered event published", "id", user.ID)
}
