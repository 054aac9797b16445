package model

import "time"

// MaxScore is the highest score a single rating may carry. Aggregate ratings
// are reported as a percentage of COUNT(ratings) * MaxScore.
const MaxScore = 5

// GameIdea is the aggregate root of a generated or user-supplied game concept.
//
// SimilarGames are owned by the idea: they are written in the same
// transaction as the parent and removed with it. Image holds the raw cover
// bytes returned by the image API; ImageURL is only set when covers are also
// mirrored to object storage.
type GameIdea struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Genre        string        `json:"genre"`
	Player       string        `json:"player"`
	Generated    bool          `json:"generated"`
	Image        []byte        `json:"-"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	SimilarGames []SimilarGame `json:"similarGames"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// SimilarGame is an existing game suggested as related to a GameIdea.
type SimilarGame struct {
	ID          string `json:"id"`
	GameID      string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Player      string `json:"player"`
	Genre       string `json:"genre"`
	ImageURL    string `json:"imageUrl"`
	LinkURL     string `json:"linkUrl"`
}

// GameRating is one user's score for one game. A user holds at most one
// rating per game; rating again replaces the score.
type GameRating struct {
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CodeLanguage pairs a programming language name with the file extension
// derived from it. See package codelang for the derivation rules.
type CodeLanguage struct {
	ID            string    `json:"id"`
	Language      string    `json:"language"`
	FileExtension string    `json:"fileExtension"`
	CreatedAt     time.Time `json:"createdAt"`
}
