// Package prompt builds the instructions sent to the chat and image APIs.
//
// The wording of these prompts is part of a format contract with package
// parser: the chat model is asked to answer with the labels declared here,
// and the parser looks for exactly those labels. Change both sides together.
package prompt

import (
	"fmt"
	"strings"
)

// Labels of a single game idea, one per line.
const (
	LabelTitle       = "Title:"
	LabelDescription = "Description:"
	LabelPlayer      = "Player type:"
	LabelGenre       = "Genre:"
)

// Extra labels used for similar games. Each similar game is answered as a
// block of six lines, every label prefixed with "#<n> " where n is the game
// number, and blocks are separated by a blank line.
const (
	LabelImage = "Image:"
	LabelLink  = "Link:"
)

// SimilarGameCount is how many similar games we ask for.
const SimilarGameCount = 5

// Seed is the description of a game that the other prompts are built from.
type Seed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PlayerType  string `json:"player"`
	Genre       string `json:"genre"`
}

// RandomGame asks for a brand new idea in the single-game format.
func RandomGame() string {
	var b strings.Builder
	b.WriteString("Give me a random unique video game idea. ")
	b.WriteString("Use the following form for the answer, where player type is what the player is playing as:\n")
	b.WriteString(LabelTitle + " \n")
	b.WriteString(LabelDescription + " \n")
	b.WriteString(LabelPlayer + " \n")
	b.WriteString(LabelGenre)
	return b.String()
}

// SimilarGames asks for existing Steam games resembling seed, in the
// numbered six-line block format.
func SimilarGames(seed Seed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Give me %s similar games from the video game platform Steam from the following information:\n", countWord(SimilarGameCount))
	writeSeed(&b, seed)
	b.WriteString("Use the following form for the answers, make sure you give the links and images to the games on steam, ")
	b.WriteString("replace #1 with the game number, separate games with an empty line ")
	b.WriteString("and where player type is what the player is playing as:\n")
	b.WriteString("#1 " + LabelTitle + " \n")
	b.WriteString("#1 " + LabelDescription + " \n")
	b.WriteString("#1 " + LabelPlayer + " \n")
	b.WriteString("#1 " + LabelGenre + " \n")
	b.WriteString("#1 " + LabelImage + " <Give the URL from steam image> \n")
	b.WriteString("#1 " + LabelLink + " <Give the URL from steam>")
	return b.String()
}

// CoverImage describes a cover picture for seed.
func CoverImage(seed Seed) string {
	var b strings.Builder
	b.WriteString("Give me a picture of a cover for a video game that has the following information, ")
	b.WriteString("where player type is what the player is playing as:\n")
	writeSeed(&b, seed)
	return strings.TrimRight(b.String(), " \n")
}

func writeSeed(b *strings.Builder, seed Seed) {
	fmt.Fprintf(b, "%s %s \n", LabelTitle, seed.Title)
	fmt.Fprintf(b, "%s %s \n", LabelDescription, seed.Description)
	fmt.Fprintf(b, "%s %s \n", LabelPlayer, seed.PlayerType)
	fmt.Fprintf(b, "%s %s \n", LabelGenre, seed.Genre)
}

func countWord(n int) string {
	words := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	if n >= 0 && n < len(words) {
		return words[n]
	}
	return fmt.Sprint(n)
}
