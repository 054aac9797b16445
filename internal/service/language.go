package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/game-idea-generator/internal/codelang"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

// RegisterLanguageRequest names a programming language to store.
type RegisterLanguageRequest struct {
	Language string `json:"language" validate:"required,max=100"`
}

// LanguageService stores code languages with their derived file extension.
type LanguageService struct {
	repo   repository.LanguageRepository
	logger *slog.Logger
}

func NewLanguageService(repo repository.LanguageRepository, logger *slog.Logger) *LanguageService {
	return &LanguageService{repo: repo, logger: logger}
}

func (s *LanguageService) Register(ctx context.Context, req RegisterLanguageRequest) (*model.CodeLanguage, error) {
	lang := codelang.New(req.Language)
	req.Language = lang.Language
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertLanguage(ctx, &lang); err != nil {
		return nil, fmt.Errorf("service/language: saving %q: %w", lang.Language, err)
	}
	s.logger.Info("language registered",
		slog.String("language", lang.Language),
		slog.String("extension", lang.FileExtension),
	)
	return &lang, nil
}

func (s *LanguageService) List(ctx context.Context) ([]model.CodeLanguage, error) {
	langs, err := s.repo.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/language: listing: %w", err)
	}
	return langs, nil
}
