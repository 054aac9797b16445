package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/service"
)

// LanguageService is implemented by *service.LanguageService.
type LanguageService interface {
	Register(ctx context.Context, req service.RegisterLanguageRequest) (*model.CodeLanguage, error)
	List(ctx context.Context) ([]model.CodeLanguage, error)
}

type LanguageHandler struct {
	languages LanguageService
	logger    *slog.Logger
}

func NewLanguageHandler(languages LanguageService, logger *slog.Logger) *LanguageHandler {
	return &LanguageHandler{languages: languages, logger: logger}
}

func (h *LanguageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	langs, err := h.languages.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if langs == nil {
		langs = []model.CodeLanguage{}
	}
	writeJSON(w, http.StatusOK, langs)
}

// HandleRegister stores a language and the file extension derived from it.
func (h *LanguageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterLanguageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	lang, err := h.languages.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, lang)
}
