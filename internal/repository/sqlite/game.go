package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

var _ repository.GameRepository = (*DB)(nil)

// gameColumns leaves out the image blob, which is only read by GetGameImage.
const gameColumns = `id, user_id, title, description, genre, player, generated, image_url, created_at, updated_at`

// CreateGame writes the game and its similar games in one transaction.
func (db *DB) CreateGame(ctx context.Context, game *model.GameIdea) error {
	now := time.Now()
	game.ID = xid.New().String()
	game.CreatedAt = now
	game.UpdatedAt = now

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_ideas (id, user_id, title, description, genre, player, generated, image, image_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			game.ID,
			game.UserID,
			game.Title,
			game.Description,
			game.Genre,
			game.Player,
			game.Generated,
			game.Image,
			game.ImageURL,
			game.CreatedAt,
			game.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting game: %w", err)
		}

		for i := range game.SimilarGames {
			sg := &game.SimilarGames[i]
			sg.ID = xid.New().String()
			sg.GameID = game.ID
			_, err := tx.ExecContext(ctx,
				`INSERT INTO similar_games (id, game_id, position, title, description, player, genre, image_url, link_url)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sg.ID, sg.GameID, i, sg.Title, sg.Description, sg.Player, sg.Genre, sg.ImageURL, sg.LinkURL,
			)
			if err != nil {
				return fmt.Errorf("inserting similar game %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: creating game: %w", err)
	}
	return nil
}

func (db *DB) GetGame(ctx context.Context, id string) (*model.GameIdea, error) {
	var g model.GameIdea
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM game_ideas WHERE id = ?`, id,
	).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.Genre, &g.Player,
		&g.Generated, &g.ImageURL, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game idea", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}

	games := []model.GameIdea{g}
	if err := db.attachSimilarGames(ctx, games); err != nil {
		return nil, err
	}
	return &games[0], nil
}

func (db *DB) ListGames(ctx context.Context, opts repository.ListOptions) ([]model.GameIdea, error) {
	limit, offset := clampPage(opts)
	return db.listGames(ctx,
		`SELECT `+gameColumns+` FROM game_ideas
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// ListGamesByGenre matches genre as a substring. SQLite's LIKE is already
// case-insensitive for ASCII; the pattern is escaped so % and _ match literally.
func (db *DB) ListGamesByGenre(ctx context.Context, genre string, opts repository.ListOptions) ([]model.GameIdea, error) {
	limit, offset := clampPage(opts)
	return db.listGames(ctx,
		`SELECT `+gameColumns+` FROM game_ideas
		 WHERE genre LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		"%"+escapeLike(genre)+"%", limit, offset,
	)
}

func (db *DB) CountGames(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_ideas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting games: %w", err)
	}
	return n, nil
}

func (db *DB) GetGameImage(ctx context.Context, id string) ([]byte, error) {
	var image []byte
	err := db.conn.QueryRowContext(ctx, `SELECT image FROM game_ideas WHERE id = ?`, id).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game idea", id)
		}
		return nil, fmt.Errorf("sqlite: getting image of game %s: %w", id, err)
	}
	if len(image) == 0 {
		return nil, apperror.NotFound("cover image", id)
	}
	return image, nil
}

func (db *DB) SetGameImageURL(ctx context.Context, id, url string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE game_ideas SET image_url = ?, updated_at = ? WHERE id = ?`,
		url, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting image url of game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("game idea", id)
	}
	return nil
}

// DeleteGame removes children explicitly as well, so the result does not
// depend on the foreign_keys pragma.
func (db *DB) DeleteGame(ctx context.Context, id string) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM game_ratings WHERE game_id = ?`, id); err != nil {
			return fmt.Errorf("deleting ratings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM similar_games WHERE game_id = ?`, id); err != nil {
			return fmt.Errorf("deleting similar games: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM game_ideas WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting game: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("game idea", id)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlite: deleting game %s: %w", id, err)
	}
	return nil
}

// RatingPercentage computes SUM(score) / (COUNT(*) * maxScore) * 100 in SQL.
// A game without ratings yields 0.
func (db *DB) RatingPercentage(ctx context.Context, gameID string, maxScore int) (float64, error) {
	if maxScore <= 0 {
		return 0, fmt.Errorf("sqlite: max score must be positive, got %d", maxScore)
	}
	var pct float64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(score) * 100.0 / (COUNT(*) * ?), 0.0)
		 FROM game_ratings WHERE game_id = ?`,
		maxScore, gameID,
	).Scan(&pct)
	if err != nil {
		return 0, fmt.Errorf("sqlite: computing rating of game %s: %w", gameID, err)
	}
	return pct, nil
}

// listGames drains the game rows before loading similar games, since the
// pool has a single connection.
func (db *DB) listGames(ctx context.Context, query string, args ...any) ([]model.GameIdea, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}

	games := make([]model.GameIdea, 0)
	for rows.Next() {
		var g model.GameIdea
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Description, &g.Genre, &g.Player,
			&g.Generated, &g.ImageURL, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}
	rows.Close()

	if err := db.attachSimilarGames(ctx, games); err != nil {
		return nil, err
	}
	return games, nil
}

// attachSimilarGames loads the similar games of every game in one query.
func (db *DB) attachSimilarGames(ctx context.Context, games []model.GameIdea) error {
	if len(games) == 0 {
		return nil
	}

	index := make(map[string]int, len(games))
	args := make([]any, 0, len(games))
	for i := range games {
		games[i].SimilarGames = []model.SimilarGame{}
		index[games[i].ID] = i
		args = append(args, games[i].ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(games)), ",")

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, game_id, title, description, player, genre, image_url, link_url
		 FROM similar_games WHERE game_id IN (`+placeholders+`)
		 ORDER BY game_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading similar games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sg model.SimilarGame
		if err := rows.Scan(&sg.ID, &sg.GameID, &sg.Title, &sg.Description, &sg.Player, &sg.Genre, &sg.ImageURL, &sg.LinkURL); err != nil {
			return fmt.Errorf("sqlite: scanning similar game row: %w", err)
		}
		i := index[sg.GameID]
		games[i].SimilarGames = append(games[i].SimilarGames, sg)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating similar games: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
