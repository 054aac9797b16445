package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, credits, github_id, email, avatar_url, password_hash, created_at, updated_at`

// CreateUser inserts a new account. user.ID is the username.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Credits,
		nullGitHubID(user.GitHubID),
		user.Email,
		user.AvatarURL,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict("user", user.ID)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
	}
	return nil
}

// Upsert creates or refreshes the account linked to user.GitHubID.
//
// A returning GitHub user keeps their username and balance; only the profile
// fields are refreshed and user is overwritten with the stored row. A new
// GitHub user is inserted with user.ID as username, which fails with
// apperror.ErrConflict if a local account already took that name.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	existing, err := db.getUser(ctx, `WHERE github_id = ?`, user.GitHubID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existing == nil {
		return db.CreateUser(ctx, user)
	}

	existing.Email = user.Email
	existing.AvatarURL = user.AvatarURL
	existing.UpdatedAt = time.Now()
	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		existing.Email,
		existing.AvatarURL,
		existing.UpdatedAt,
		existing.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}
	*user = *existing
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := db.getUser(ctx, `WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// DebitCredit decrements the balance in a single conditional UPDATE so two
// requests racing for the last credit cannot both succeed.
func (db *DB) DebitCredit(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET credits = credits - 1, updated_at = ? WHERE id = ? AND credits >= 1`,
		time.Now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: debiting user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

// AddCredits adjusts the balance by delta. A result below zero violates the
// CHECK constraint and is reported as a validation error.
func (db *DB) AddCredits(ctx context.Context, id string, delta int) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now(), id,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.ValidationFailed("credits", "credits cannot become negative")
		}
		return fmt.Errorf("sqlite: adding credits to user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// getUser returns sql.ErrNoRows unwrapped so callers can decide what a miss means.
func (db *DB) getUser(ctx context.Context, where string, args ...any) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, args...).Scan(
		&u.ID,
		&u.Credits,
		&githubID,
		&u.Email,
		&u.AvatarURL,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// nullGitHubID stores local accounts with a NULL github_id so the UNIQUE
// index only constrains linked accounts.
func nullGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
