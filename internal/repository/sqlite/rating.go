package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

var _ repository.RatingRepository = (*DB)(nil)

// UpsertRating keeps the original created_at when a user rates a game again.
func (db *DB) UpsertRating(ctx context.Context, rating *model.GameRating) error {
	now := time.Now()
	rating.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO game_ratings (user_id, game_id, score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, game_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		rating.UserID, rating.GameID, rating.Score, now, now,
	)
	if err != nil {
		if isCheckViolation(err) {
			return apperror.ValidationFailed("score", fmt.Sprintf("score must be between 1 and %d", model.MaxScore))
		}
		return fmt.Errorf("sqlite: saving rating of %s for game %s: %w", rating.UserID, rating.GameID, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM game_ratings WHERE user_id = ? AND game_id = ?`,
		rating.UserID, rating.GameID,
	).Scan(&rating.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back rating of %s for game %s: %w", rating.UserID, rating.GameID, err)
	}
	return nil
}
