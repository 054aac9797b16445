package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/game-idea-generator/internal/model"
)

// newTestDB returns a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string, credits int) *model.User {
	t.Helper()
	u := &model.User{ID: username, Credits: credits}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestGame(t *testing.T, db *DB, owner, title, genre string, similar int) *model.GameIdea {
	t.Helper()
	g := &model.GameIdea{
		UserID:      owner,
		Title:       title,
		Description: title + " description",
		Genre:       genre,
		Player:      "Knight",
		Generated:   true,
		Image:       []byte("\x89PNG\r\n\x1a\n" + title),
	}
	for i := 0; i < similar; i++ {
		g.SimilarGames = append(g.SimilarGames, model.SimilarGame{
			Title:    fmt.Sprintf("%s similar %d", title, i),
			ImageURL: "https://img.example/" + title,
			LinkURL:  "https://store.example/" + title,
		})
	}
	if err := db.CreateGame(context.Background(), g); err != nil {
		t.Fatalf("failed to create test game: %v", err)
	}
	return g
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
