package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/game-idea-generator/internal/auth"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser injects username the way RequireAuth would.
func asUser(username string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUsername(r.Context(), username)))
		})
	}
}

type stubGames struct {
	createReq  service.CreateGameRequest
	createUser string
	listGenre  string
	listPage   int
	listSize   int
	deletedBy  string
	deletedID  string
	game       *service.GameIdeaResponse
	image      []byte
	err        error
}

func (s *stubGames) Create(ctx context.Context, username string, req service.CreateGameRequest) (*service.GameIdeaResponse, error) {
	s.createUser, s.createReq = username, req
	return s.game, s.err
}

func (s *stubGames) Generate(ctx context.Context, username string) (*service.GameIdeaResponse, error) {
	s.createUser = username
	return s.game, s.err
}

func (s *stubGames) Get(ctx context.Context, id string) (*service.GameIdeaResponse, error) {
	return s.game, s.err
}

func (s *stubGames) List(ctx context.Context, page, size int) (*service.GamePage, error) {
	s.listPage, s.listSize = page, size
	if s.err != nil {
		return nil, s.err
	}
	return &service.GamePage{Games: []service.GameIdeaResponse{}, Page: page, Size: size}, nil
}

func (s *stubGames) ListByGenre(ctx context.Context, genre string, page, size int) (*service.GamePage, error) {
	s.listGenre = genre
	return s.List(ctx, page, size)
}

func (s *stubGames) Count(ctx context.Context) (int64, error) {
	return 7, s.err
}

func (s *stubGames) Image(ctx context.Context, id string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.image, http.DetectContentType(s.image), nil
}

func (s *stubGames) Delete(ctx context.Context, id, username string) error {
	s.deletedID, s.deletedBy = id, username
	return s.err
}

type stubRatings struct {
	score int
	err   error
}

func (s *stubRatings) Rate(ctx context.Context, username, gameID string, score int) (*service.RatingResponse, error) {
	s.score = score
	if s.err != nil {
		return nil, s.err
	}
	return &service.RatingResponse{GameID: gameID, Score: score, Percentage: 80}, nil
}

type stubAuth struct {
	result *service.AuthResult
	ghUser *auth.GitHubUser
	user   *model.User
	err    error
}

func (s *stubAuth) Register(ctx context.Context, c service.Credentials) (*service.AuthResult, error) {
	return s.result, s.err
}

func (s *stubAuth) Login(ctx context.Context, c service.Credentials) (*service.AuthResult, error) {
	return s.result, s.err
}

func (s *stubAuth) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error) {
	s.ghUser = gh
	return s.result, s.err
}

func (s *stubAuth) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.user, s.err
}

type stubProvider struct {
	user *auth.GitHubUser
	err  error
}

func (p *stubProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	return p.user, p.err
}

type stubLanguages struct {
	langs []model.CodeLanguage
	err   error
}

func (s *stubLanguages) Register(ctx context.Context, req service.RegisterLanguageRequest) (*model.CodeLanguage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.CodeLanguage{ID: "l1", Language: req.Language, FileExtension: "go"}, nil
}

func (s *stubLanguages) List(ctx context.Context) ([]model.CodeLanguage, error) {
	return s.langs, s.err
}

func newGameRouter(h *GameHandler, username string) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/games", h.HandleList)
	r.Get("/api/games/count", h.HandleCount)
	r.Get("/api/games/{id}", h.HandleGet)
	r.Get("/api/games/{id}/image", h.HandleImage)
	r.Group(func(r chi.Router) {
		if username != "" {
			r.Use(asUser(username))
		}
		r.Post("/api/games", h.HandleCreate)
		r.Post("/api/games/generate", h.HandleGenerate)
		r.Delete("/api/games/{id}", h.HandleDelete)
		r.Put("/api/games/{id}/rating", h.HandleRate)
	})
	return r
}
