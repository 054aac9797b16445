// Package repository declares the storage contracts used by the service layer.
// The sqlite subpackage implements all of them on a single *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/game-idea-generator/internal/model"
)

// ListOptions pages through a result set, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

type GameRepository interface {
	// CreateGame stores the game and its similar games in one transaction.
	// IDs and timestamps are filled in on the passed values.
	CreateGame(ctx context.Context, game *model.GameIdea) error
	// GetGame returns the game with its similar games, without image bytes.
	GetGame(ctx context.Context, id string) (*model.GameIdea, error)
	ListGames(ctx context.Context, opts ListOptions) ([]model.GameIdea, error)
	// ListGamesByGenre matches genre as a case-insensitive substring.
	ListGamesByGenre(ctx context.Context, genre string, opts ListOptions) ([]model.GameIdea, error)
	CountGames(ctx context.Context) (int64, error)
	GetGameImage(ctx context.Context, id string) ([]byte, error)
	// SetGameImageURL records where the cover was mirrored after the game
	// was saved.
	SetGameImageURL(ctx context.Context, id, url string) error
	// DeleteGame removes the game with its similar games and ratings.
	DeleteGame(ctx context.Context, id string) error
	// RatingPercentage returns SUM(score) / (COUNT * maxScore) * 100, or 0
	// when the game has no ratings.
	RatingPercentage(ctx context.Context, gameID string, maxScore int) (float64, error)
}

type RatingRepository interface {
	// UpsertRating stores the user's score for a game, replacing any earlier one.
	UpsertRating(ctx context.Context, rating *model.GameRating) error
}

type UserRepository interface {
	// CreateUser inserts a local account; a taken username is apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	// Upsert inserts or refreshes a GitHub account keyed by GitHubID.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// DebitCredit takes one credit if the balance allows it. It reports false
	// when the user has no credit left or does not exist.
	DebitCredit(ctx context.Context, id string) (bool, error)
	AddCredits(ctx context.Context, id string, delta int) error
}

type LanguageRepository interface {
	// UpsertLanguage stores the language, updating the extension of an
	// existing entry with the same name.
	UpsertLanguage(ctx context.Context, lang *model.CodeLanguage) error
	ListLanguages(ctx context.Context) ([]model.CodeLanguage, error)
}
