package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkpoint-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users and verification codes
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, verified_at, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.VerifiedAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWithCode inserts an unverified user together with its verification code
func (r *UserRepository) CreateWithCode(ctx context.Context, user *models.User, code *models.VerificationCode) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, username, password_hash, verified_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, user.ID, user.Email, user.Username, user.PasswordHash, user.VerifiedAt, user.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO verification_codes (user_id, code, expires_at)
			VALUES ($1, $2, $3)
		`, code.UserID, code.Code, code.ExpiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", classify(err))
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", classify(err))
	}
	return user, nil
}

// MarkVerified sets verified_at unless it is already set
func (r *UserRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET verified_at = COALESCE(verified_at, $2) WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark user verified: %w", ErrNotFound)
	}
	return nil
}

// ConsumeCode marks a live code for the given email as used and verifies its owner.
// It returns ErrNotFound when no unexpired, unconsumed code matches.
func (r *UserRepository) ConsumeCode(ctx context.Context, email, code string, now time.Time) (string, error) {
	var userID string
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE verification_codes vc
			SET consumed_at = $3
			FROM users u
			WHERE vc.user_id = u.id
			  AND u.email = $1
			  AND vc.code = $2
			  AND vc.consumed_at IS NULL
			  AND vc.expires_at > $3
			RETURNING vc.user_id
		`, email, code, now).Scan(&userID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET verified_at = COALESCE(verified_at, $2) WHERE id = $1`, userID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("verification code not accepted: %w", ErrNotFound)
		}
		return "", fmt.Errorf("failed to consume verification code: %w", err)
	}
	return userID, nil
}
