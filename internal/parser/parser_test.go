package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/game-idea-generator/internal/prompt"
)

func TestParseGame(t *testing.T) {
	tests := []struct {
		name string
		text string
		want prompt.Seed
	}{
		{
			name: "all four fields",
			text: "Title: Foo\nDescription: Bar\nPlayer type: Solo\nGenre: Puzzle",
			want: prompt.Seed{Title: "Foo", Description: "Bar", PlayerType: "Solo", Genre: "Puzzle"},
		},
		{
			name: "windows line endings and padding",
			text: "  Title:   Foo  \r\nDescription: Bar\r\nPlayer type: Solo\r\nGenre: Puzzle\r\n",
			want: prompt.Seed{Title: "Foo", Description: "Bar", PlayerType: "Solo", Genre: "Puzzle"},
		},
		{
			name: "chatter around the answer is ignored",
			text: "Sure! Here is an idea:\n\nTitle: Foo\nDescription: Bar\nPlayer type: Solo\nGenre: Puzzle\n\nEnjoy!",
			want: prompt.Seed{Title: "Foo", Description: "Bar", PlayerType: "Solo", Genre: "Puzzle"},
		},
		{
			name: "missing labels stay empty",
			text: "Title: Foo\nGenre: Puzzle",
			want: prompt.Seed{Title: "Foo", Genre: "Puzzle"},
		},
		{
			name: "empty text",
			text: "",
			want: prompt.Seed{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGame(tt.text))
		})
	}
}

func similarBlock(n int, title string) string {
	return fmt.Sprintf("#%[1]d Title: %[2]s\n#%[1]d Description: About %[2]s\n#%[1]d Player type: Knight\n#%[1]d Genre: RPG\n#%[1]d Image: https://img.example/%[1]d.jpg\n#%[1]d Link: https://store.example/app/%[1]d", n, title)
}

func TestParseSimilarGames_TwoBlocks(t *testing.T) {
	text := similarBlock(1, "Alpha") + "\n\n" + similarBlock(2, "Beta")

	games, err := ParseSimilarGames(text)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "Alpha", games[0].Title)
	assert.Equal(t, "About Alpha", games[0].Description)
	assert.Equal(t, "Knight", games[0].Player)
	assert.Equal(t, "RPG", games[0].Genre)
	assert.Equal(t, "https://img.example/1.jpg", games[0].ImageURL)
	assert.Equal(t, "https://store.example/app/1", games[0].LinkURL)
	assert.Equal(t, "Beta", games[1].Title)
}

func TestParseSimilarGames_FiveBlocksWithoutSeparators(t *testing.T) {
	var blocks []string
	for i := 1; i <= 5; i++ {
		blocks = append(blocks, similarBlock(i, fmt.Sprintf("Game %d", i)))
	}

	games, err := ParseSimilarGames("Here are five similar games:\n" + strings.Join(blocks, "\n"))
	require.NoError(t, err)
	require.Len(t, games, 5)
	for i, g := range games {
		assert.Equal(t, fmt.Sprintf("Game %d", i+1), g.Title)
	}
}

func TestParseSimilarGames_UnnumberedBlocksSplitOnRepeatedField(t *testing.T) {
	text := strings.Join([]string{
		"Title: Alpha", "Description: a", "Player type: p", "Genre: g", "Image: i", "Link: l",
		"",
		"title: Beta", "DESCRIPTION: b", "Player Type: p", "genre: g", "image: i", "link: l",
	}, "\n")

	games, err := ParseSimilarGames(text)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Beta", games[1].Title)
	assert.Equal(t, "b", games[1].Description)
}

func TestParseSimilarGames_ValueWithColons(t *testing.T) {
	games, err := ParseSimilarGames(similarBlock(1, "Deus Ex: Mankind Divided"))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Deus Ex: Mankind Divided", games[0].Title)
	assert.Equal(t, "https://store.example/app/1", games[0].LinkURL)
}

func TestParseSimilarGames_ShortBlock(t *testing.T) {
	short := "#2 Title: Beta\n#2 Description: b\n#2 Player type: p\n#2 Genre: g\n#2 Image: i"
	_, err := ParseSimilarGames(similarBlock(1, "Alpha") + "\n\n" + short)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Block)
	assert.Equal(t, "Link", perr.Field)
}

func TestParseSimilarGames_NoBlocks(t *testing.T) {
	_, err := ParseSimilarGames("I'm sorry, I can't help with that.")

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Block)
	assert.ErrorIs(t, err, ErrMissingField)
}
