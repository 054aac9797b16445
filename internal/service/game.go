package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/parser"
	"github.com/sakif/game-idea-generator/internal/prompt"
	"github.com/sakif/game-idea-generator/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DefaultGenerationTimeout bounds all AI calls made for one request.
	DefaultGenerationTimeout = 90 * time.Second

	randomGameTemperature   = 1.3
	similarGamesTemperature = 0
)

// AIClient is the part of *ai.Client the game service uses.
type AIClient interface {
	CompleteChat(ctx context.Context, prompt string, temperature float64) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// CoverStore mirrors cover images and returns a public URL.
type CoverStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// CreateGameRequest is a user-supplied idea to enrich.
type CreateGameRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=4000"`
	Player      string `json:"player" validate:"required,max=200"`
	Genre       string `json:"genre" validate:"required,max=200"`
}

// GameIdeaResponse is the API view of a game idea. Image is only filled
// right after creation; afterwards the cover is served on its own route.
type GameIdeaResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Genre        string              `json:"genre"`
	Player       string              `json:"player"`
	Generated    bool                `json:"generated"`
	Image        []byte              `json:"image,omitempty"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	Rating       float64             `json:"rating"`
	SimilarGames []model.SimilarGame `json:"similarGames"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// GamePage is one page of a listing.
type GamePage struct {
	Games []GameIdeaResponse `json:"games"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// GameService creates game ideas and serves them back.
type GameService struct {
	games   repository.GameRepository
	ledger  *CreditLedger
	ai      AIClient
	covers  CoverStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewGameService wires the orchestrator. covers may be nil, in which case
// covers are kept in the database only.
func NewGameService(
	games repository.GameRepository,
	ledger *CreditLedger,
	ai AIClient,
	covers CoverStore,
	timeout time.Duration,
	logger *slog.Logger,
) *GameService {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GameService{
		games:   games,
		ledger:  ledger,
		ai:      ai,
		covers:  covers,
		timeout: timeout,
		logger:  logger,
	}
}

// Create spends one credit, enriches req with a cover image and similar
// games, and stores the result. Nothing is stored and the credit is refunded
// if any step after the debit fails.
func (s *GameService) Create(ctx context.Context, username string, req CreateGameRequest) (*GameIdeaResponse, error) {
	req = CreateGameRequest{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Player:      strings.TrimSpace(req.Player),
		Genre:       strings.TrimSpace(req.Genre),
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.ledger.CheckAndDebit(ctx, username); err != nil {
		return nil, err
	}

	seed := prompt.Seed{Title: req.Title, Description: req.Description, PlayerType: req.Player, Genre: req.Genre}
	resp, err := s.build(ctx, username, false, func(context.Context) (prompt.Seed, error) { return seed, nil })
	if err != nil {
		s.ledger.Refund(ctx, username)
		return nil, err
	}
	return resp, nil
}

// Generate is Create with the idea itself invented by the chat model.
func (s *GameService) Generate(ctx context.Context, username string) (*GameIdeaResponse, error) {
	if _, err := s.ledger.CheckAndDebit(ctx, username); err != nil {
		return nil, err
	}

	resp, err := s.build(ctx, username, true, s.randomSeed)
	if err != nil {
		s.ledger.Refund(ctx, username)
		return nil, err
	}
	return resp, nil
}

func (s *GameService) randomSeed(ctx context.Context) (prompt.Seed, error) {
	text, err := s.ai.CompleteChat(ctx, prompt.RandomGame(), randomGameTemperature)
	if err != nil {
		return prompt.Seed{}, fmt.Errorf("service/game: requesting random game: %w", err)
	}
	seed := parser.ParseGame(text)
	if seed.Title == "" {
		return prompt.Seed{}, apperror.UpstreamMalformed("random game", "Title", "reply did not contain a title")
	}
	return seed, nil
}

// build runs the AI stage under the generation deadline and then persists.
// Persistence uses ctx, not the deadline, so a slow upstream cannot cut a
// write short.
func (s *GameService) build(
	ctx context.Context,
	username string,
	generated bool,
	seedFn func(context.Context) (prompt.Seed, error),
) (*GameIdeaResponse, error) {
	start := time.Now()
	aiCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	seed, err := seedFn(aiCtx)
	if err != nil {
		return nil, asTimeout(err)
	}

	image, similar, err := s.enrich(aiCtx, seed)
	if err != nil {
		return nil, asTimeout(err)
	}

	game := &model.GameIdea{
		UserID:       username,
		Title:        seed.Title,
		Description:  seed.Description,
		Genre:        seed.Genre,
		Player:       seed.PlayerType,
		Generated:    generated,
		Image:        image,
		SimilarGames: similar,
	}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("service/game: saving game: %w", err)
	}
	game.ImageURL = s.mirrorCover(ctx, game.ID, image)

	s.logger.Info("game idea created",
		slog.String("id", game.ID),
		slog.String("user", username),
		slog.Bool("generated", generated),
		slog.Int("similarGames", len(similar)),
		slog.Duration("duration", time.Since(start)),
	)

	resp := toResponse(game, 0)
	resp.Image = game.Image
	return &resp, nil
}

// enrich asks for the cover image and the similar games at the same time.
// The first failure cancels the other call.
func (s *GameService) enrich(ctx context.Context, seed prompt.Seed) ([]byte, []model.SimilarGame, error) {
	var (
		image   []byte
		similar []model.SimilarGame
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := s.ai.GenerateImage(gctx, prompt.CoverImage(seed))
		if err != nil {
			return fmt.Errorf("service/game: generating cover: %w", err)
		}
		image = img
		return nil
	})
	g.Go(func() error {
		text, err := s.ai.CompleteChat(gctx, prompt.SimilarGames(seed), similarGamesTemperature)
		if err != nil {
			return fmt.Errorf("service/game: requesting similar games: %w", err)
		}
		games, err := parser.ParseSimilarGames(text)
		if err != nil {
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				return fmt.Errorf("%w: %w", apperror.UpstreamMalformed("similar games", perr.Field, perr.Error()), err)
			}
			return fmt.Errorf("service/game: parsing similar games: %w", err)
		}
		similar = games
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return image, similar, nil
}

// mirrorCover uploads the cover of a saved game when a store is configured
// and records the URL. Failure only costs the public URL; the bytes are
// already stored with the game.
func (s *GameService) mirrorCover(ctx context.Context, gameID string, image []byte) string {
	if s.covers == nil {
		return ""
	}
	url, err := s.covers.Upload(ctx, image, http.DetectContentType(image))
	if err != nil {
		s.logger.Warn("cover upload failed", slog.String("game", gameID), slog.String("error", err.Error()))
		return ""
	}
	if err := s.games.SetGameImageURL(ctx, gameID, url); err != nil {
		s.logger.Warn("recording cover url failed",
			slog.String("game", gameID),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return url
}

// asTimeout turns a bare deadline error into an upstream timeout.
func asTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperror.ErrUpstreamTimeout) {
		return fmt.Errorf("%w: %w", apperror.UpstreamTimeout("game generation"), err)
	}
	return err
}

func (s *GameService) Get(ctx context.Context, id string) (*GameIdeaResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "game ID is required")
	}

	game, err := s.games.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	rating, err := s.games.RatingPercentage(ctx, id, model.MaxScore)
	if err != nil {
		return nil, fmt.Errorf("service/game: rating of %s: %w", id, err)
	}
	resp := toResponse(game, rating)
	return &resp, nil
}

// List returns page (0-based) of all games, newest first.
func (s *GameService) List(ctx context.Context, page, size int) (*GamePage, error) {
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}
	games, err := s.games.ListGames(ctx, repository.ListOptions{Limit: size, Offset: page * size})
	if err != nil {
		return nil, fmt.Errorf("service/game: listing games: %w", err)
	}
	return s.toPage(ctx, games, page, size)
}

// ListByGenre returns games whose genre contains genre, ignoring case.
func (s *GameService) ListByGenre(ctx context.Context, genre string, page, size int) (*GamePage, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return s.List(ctx, page, size)
	}
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}
	games, err := s.games.ListGamesByGenre(ctx, genre, repository.ListOptions{Limit: size, Offset: page * size})
	if err != nil {
		return nil, fmt.Errorf("service/game: listing games by genre %q: %w", genre, err)
	}
	return s.toPage(ctx, games, page, size)
}

func (s *GameService) Count(ctx context.Context) (int64, error) {
	n, err := s.games.CountGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/game: counting games: %w", err)
	}
	return n, nil
}

// Image returns the stored cover and its sniffed content type.
func (s *GameService) Image(ctx context.Context, id string) ([]byte, string, error) {
	img, err := s.games.GetGameImage(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return img, http.DetectContentType(img), nil
}

// Delete removes a game owned by username.
func (s *GameService) Delete(ctx context.Context, id, username string) error {
	game, err := s.games.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if game.UserID != username {
		return apperror.Forbidden("only the owner can delete a game idea")
	}
	if err := s.games.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("service/game: deleting %s: %w", id, err)
	}
	s.logger.Info("game idea deleted", slog.String("id", id), slog.String("user", username))
	return nil
}

func (s *GameService) toPage(ctx context.Context, games []model.GameIdea, page, size int) (*GamePage, error) {
	out := &GamePage{Games: make([]GameIdeaResponse, 0, len(games)), Page: page, Size: size}
	for i := range games {
		rating, err := s.games.RatingPercentage(ctx, games[i].ID, model.MaxScore)
		if err != nil {
			return nil, fmt.Errorf("service/game: rating of %s: %w", games[i].ID, err)
		}
		out.Games = append(out.Games, toResponse(&games[i], rating))
	}
	return out, nil
}

func toResponse(g *model.GameIdea, rating float64) GameIdeaResponse {
	similar := g.SimilarGames
	if similar == nil {
		similar = []model.SimilarGame{}
	}
	return GameIdeaResponse{
		ID:           g.ID,
		UserID:       g.UserID,
		Title:        g.Title,
		Description:  g.Description,
		Genre:        g.Genre,
		Player:       g.Player,
		Generated:    g.Generated,
		ImageURL:     g.ImageURL,
		Rating:       rating,
		SimilarGames: similar,
		CreatedAt:    g.CreatedAt,
	}
}

// normalizePage applies the size defaults and rejects a page whose offset
// would not fit in an int.
func normalizePage(page, size int) (int, int, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page > math.MaxInt/size {
		return 0, 0, apperror.ValidationFailed("page", "page is out of range")
	}
	return page, size, nil
}
