package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/auth"
	"github.com/sakif/game-idea-generator/internal/service"
)

// GameService is implemented by *service.GameService.
type GameService interface {
	Create(ctx context.Context, username string, req service.CreateGameRequest) (*service.GameIdeaResponse, error)
	Generate(ctx context.Context, username string) (*service.GameIdeaResponse, error)
	Get(ctx context.Context, id string) (*service.GameIdeaResponse, error)
	List(ctx context.Context, page, size int) (*service.GamePage, error)
	ListByGenre(ctx context.Context, genre string, page, size int) (*service.GamePage, error)
	Count(ctx context.Context) (int64, error)
	Image(ctx context.Context, id string) ([]byte, string, error)
	Delete(ctx context.Context, id, username string) error
}

// RatingService is implemented by *service.RatingService.
type RatingService interface {
	Rate(ctx context.Context, username, gameID string, score int) (*service.RatingResponse, error)
}

type GameHandler struct {
	games   GameService
	ratings RatingService
	logger  *slog.Logger
}

func NewGameHandler(games GameService, ratings RatingService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, ratings: ratings, logger: logger}
}

// HandleList serves GET /api/games?page=&size=&genre=.
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	size, err := queryInt(r, "size", service.DefaultPageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var result *service.GamePage
	if genre := r.URL.Query().Get("genre"); genre != "" {
		result, err = h.games.ListByGenre(r.Context(), genre, page, size)
	} else {
		result, err = h.games.List(r.Context(), page, size)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.games.Count(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// HandleImage writes the raw cover bytes.
func (h *GameHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.games.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req service.CreateGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	game, err := h.games.Create(r.Context(), username, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *GameHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	game, err := h.games.Generate(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.games.Delete(r.Context(), chi.URLParam(r, "id"), username); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rateRequest struct {
	Score int `json:"score"`
}

// HandleRate serves PUT /api/games/{id}/rating with body {"score": n}.
func (h *GameHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.ratings.Rate(r.Context(), username, chi.URLParam(r, "id"), req.Score)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
