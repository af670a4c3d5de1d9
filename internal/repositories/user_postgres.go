package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/repositories/migrations"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// UserPostgresRepository stores credential records in the users table.
type UserPostgresRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewUserPostgresRepository creates a repository over db.
func NewUserPostgresRepository(db *sqlx.DB, timeout time.Duration) *UserPostgresRepository {
	return &UserPostgresRepository{db: db, timeout: timeout}
}

// FindByEmail returns the record for email, or nil if there is none.
func (r *UserPostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
		SELECT id::text AS id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)

	logger.Log.Infow("find user",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{email},
		"found", err == nil,
		"error", err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("find user", err)
	}

	return &user, nil
}

// Create inserts a new record. The users_email_unique constraint makes
// concurrent inserts for one email fail with ErrAlreadyExists.
func (r *UserPostgresRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	const query = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id::text AS id, username, email, password_hash, created_at
	`

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	err := r.db.GetContext(ctx, &user, query, username, email, passwordHash)

	logger.Log.Infow("create user",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{username, email},
		"id", user.ID,
		"error", err,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, unavailable("create user", err)
	}

	return &user, nil
}

// Ping checks connectivity.
func (r *UserPostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// MigratePostgres applies the embedded schema migrations.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// ConnectPostgres opens a pool for dsn, sizes it and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}
