// Package parser turns chat completion text into structured game data.
//
// Both parsers scan line by line and look for the labels declared in package
// prompt. Lines without a known label are ignored, so chatter before or after
// the answer does not matter.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/prompt"
)

// ErrMissingField is wrapped by every ParseError.
var ErrMissingField = errors.New("parser: missing field")

// ParseError identifies which field of which similar-game block is missing.
// Block is 1-based; Block 0 means the reply contained no block at all.
type ParseError struct {
	Block int
	Field string
}

func (e *ParseError) Error() string {
	if e.Block == 0 {
		return fmt.Sprintf("parser: no similar games found (expected %q)", e.Field)
	}
	return fmt.Sprintf("parser: similar game %d is missing %q", e.Block, e.Field)
}

func (e *ParseError) Unwrap() error {
	return ErrMissingField
}

// ParseGame reads a single game in the "Label: value" format. Fields whose
// label never appears are left empty.
func ParseGame(text string) prompt.Seed {
	var seed prompt.Seed
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, prompt.LabelTitle); ok {
			seed.Title = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, prompt.LabelDescription); ok {
			seed.Description = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, prompt.LabelPlayer); ok {
			seed.PlayerType = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, prompt.LabelGenre); ok {
			seed.Genre = strings.TrimSpace(v)
		}
	}
	return seed
}

// similarLine matches "#3 Player type: value". The number is optional so a
// model that drops it still parses.
var similarLine = regexp.MustCompile(`^\s*(?:#(\d+)\s*)?([A-Za-z][A-Za-z ]*?)\s*:\s*(.*?)\s*$`)

// field order of a similar-game block; also the order fields are reported
// missing in.
var similarFields = []string{
	strings.TrimSuffix(prompt.LabelTitle, ":"),
	strings.TrimSuffix(prompt.LabelDescription, ":"),
	strings.TrimSuffix(prompt.LabelPlayer, ":"),
	strings.TrimSuffix(prompt.LabelGenre, ":"),
	strings.TrimSuffix(prompt.LabelImage, ":"),
	strings.TrimSuffix(prompt.LabelLink, ":"),
}

type block struct {
	number string
	values map[string]string
}

// ParseSimilarGames reads the numbered six-field blocks of a similar-games
// answer.
//
// A new block starts when the "#<n>" number changes or when a field repeats
// inside the current block. Fields may appear in any order and blank lines
// are ignored. Every block must carry all six fields;
// the first one missing is reported as a *ParseError.
func ParseSimilarGames(text string) ([]model.SimilarGame, error) {
	var (
		blocks  []*block
		current *block
	)

	for _, line := range splitLines(text) {
		m := similarLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		number, field, value := m[1], canonicalField(m[2]), m[3]
		if field == "" {
			continue
		}

		if current != nil {
			_, repeated := current.values[field]
			if repeated || (number != "" && current.number != "" && number != current.number) {
				current = nil
			}
		}
		if current == nil {
			current = &block{number: number, values: make(map[string]string, len(similarFields))}
			blocks = append(blocks, current)
		}
		if current.number == "" {
			current.number = number
		}
		current.values[field] = value
	}

	if len(blocks) == 0 {
		return nil, &ParseError{Block: 0, Field: similarFields[0]}
	}

	games := make([]model.SimilarGame, 0, len(blocks))
	for i, b := range blocks {
		for _, f := range similarFields {
			if _, ok := b.values[f]; !ok {
				return nil, &ParseError{Block: i + 1, Field: f}
			}
		}
		games = append(games, model.SimilarGame{
			Title:       b.values[similarFields[0]],
			Description: b.values[similarFields[1]],
			Player:      b.values[similarFields[2]],
			Genre:       b.values[similarFields[3]],
			ImageURL:    b.values[similarFields[4]],
			LinkURL:     b.values[similarFields[5]],
		})
	}
	return games, nil
}

// canonicalField returns the known field name matching label, or "".
func canonicalField(label string) string {
	label = strings.TrimSpace(label)
	for _, f := range similarFields {
		if strings.EqualFold(label, f) {
			return f
		}
	}
	return ""
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
