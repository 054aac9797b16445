package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

var _ repository.LanguageRepository = (*DB)(nil)

func (db *DB) UpsertLanguage(ctx context.Context, lang *model.CodeLanguage) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO code_languages (id, language, file_extension, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (language) DO UPDATE SET file_extension = excluded.file_extension`,
		xid.New().String(), lang.Language, lang.FileExtension, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving language %q: %w", lang.Language, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM code_languages WHERE language = ?`, lang.Language,
	).Scan(&lang.ID, &lang.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back language %q: %w", lang.Language, err)
	}
	return nil
}

func (db *DB) ListLanguages(ctx context.Context) ([]model.CodeLanguage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, language, file_extension, created_at FROM code_languages ORDER BY language`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing languages: %w", err)
	}
	defer rows.Close()

	langs := make([]model.CodeLanguage, 0)
	for rows.Next() {
		var l model.CodeLanguage
		if err := rows.Scan(&l.ID, &l.Language, &l.FileExtension, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning language row: %w", err)
		}
		langs = append(langs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating languages: %w", err)
	}
	return langs, nil
}
