package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

// RatingService records user scores and reports the aggregate percentage.
type RatingService struct {
	games   repository.GameRepository
	ratings repository.RatingRepository
	logger  *slog.Logger
}

func NewRatingService(games repository.GameRepository, ratings repository.RatingRepository, logger *slog.Logger) *RatingService {
	return &RatingService{games: games, ratings: ratings, logger: logger}
}

// RatingResponse is returned after a user rates a game.
type RatingResponse struct {
	GameID     string  `json:"gameId"`
	Score      int     `json:"score"`
	Percentage float64 `json:"rating"`
}

// Rate stores username's score (1..model.MaxScore) for gameID, replacing an
// earlier one, and returns the game's new percentage.
func (s *RatingService) Rate(ctx context.Context, username, gameID string, score int) (*RatingResponse, error) {
	if score < 1 || score > model.MaxScore {
		return nil, apperror.ValidationFailed("score", fmt.Sprintf("score must be between 1 and %d", model.MaxScore))
	}
	if _, err := s.games.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	rating := &model.GameRating{UserID: username, GameID: gameID, Score: score}
	if err := s.ratings.UpsertRating(ctx, rating); err != nil {
		return nil, fmt.Errorf("service/rating: saving rating: %w", err)
	}

	pct, err := s.games.RatingPercentage(ctx, gameID, model.MaxScore)
	if err != nil {
		return nil, fmt.Errorf("service/rating: computing rating of %s: %w", gameID, err)
	}

	s.logger.Info("game rated",
		slog.String("game", gameID),
		slog.String("user", username),
		slog.Int("score", score),
	)
	return &RatingResponse{GameID: gameID, Score: score, Percentage: pct}, nil
}
