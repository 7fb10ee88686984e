package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/desertthunder/spotme/internal/models"
)

func genresOf(names ...string) models.Genres {
	g := models.NewGenres()
	for _, n := range names {
		g.Set(n, models.GenreMetadata{Artists: []models.ArtistRef{{Name: n + " artist"}}})
	}
	return g
}

func TestAnnotate(t *testing.T) {
	t.Run("longest match first", func(t *testing.T) {
		segs := Annotate("I love indie rock and rock", genresOf("rock", "indie rock"))

		assert.Equal(t, []Segment{
			PlainText{Text: "I love "},
			GenreMention{Genre: "indie rock", Metadata: models.GenreMetadata{Artists: []models.ArtistRef{{Name: "indie rock artist"}}}},
			PlainText{Text: " and "},
			GenreMention{Genre: "rock", Metadata: models.GenreMetadata{Artists: []models.ArtistRef{{Name: "rock artist"}}}},
		}, segs)
	})

	t.Run("mentions are not rescanned", func(t *testing.T) {
		segs := Annotate("post-punk revival", genresOf("punk", "post-punk revival", "post-punk"))
		assert.Len(t, segs, 1)
		assert.Equal(t, "post-punk revival", segs[0].(GenreMention).Genre)
	})

	t.Run("equal lengths keep dictionary order", func(t *testing.T) {
		// "abcd" and "bcde" overlap in "abcde"; whichever comes first in the dictionary wins.
		first := Annotate("abcde", genresOf("abcd", "bcde"))
		assert.Equal(t, []Segment{GenreMention{Genre: "abcd", Metadata: first[0].(GenreMention).Metadata}, PlainText{Text: "e"}}, first)

		second := Annotate("abcde", genresOf("bcde", "abcd"))
		assert.Equal(t, PlainText{Text: "a"}, second[0])
		assert.Equal(t, "bcde", second[1].(GenreMention).Genre)
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		// "électro" is 7 runes and 8 bytes; "électro x" is 9 runes and wins.
		segs := Annotate("électro x", genresOf("électro", "électro x"))
		assert.Len(t, segs, 1)
		assert.Equal(t, "électro x", segs[0].(GenreMention).Genre)
	})

	t.Run("empty key is skipped", func(t *testing.T) {
		segs := Annotate("jazz", genresOf("", "jazz"))
		assert.Len(t, segs, 1)
		assert.Equal(t, "jazz", segs[0].Literal())
	})

	t.Run("case sensitive", func(t *testing.T) {
		segs := Annotate("Rock rock", genresOf("rock"))
		assert.Equal(t, PlainText{Text: "Rock "}, segs[0])
		assert.IsType(t, GenreMention{}, segs[1])
	})

	t.Run("adjacent repeats", func(t *testing.T) {
		segs := Annotate("popop pop", genresOf("pop"))
		assert.Equal(t, "popop pop", Literal(segs))
		assert.IsType(t, GenreMention{}, segs[0])
		assert.Equal(t, PlainText{Text: "op "}, segs[1])
		assert.IsType(t, GenreMention{}, segs[2])
	})

	t.Run("no genres", func(t *testing.T) {
		assert.Equal(t, []Segment{PlainText{Text: "plain"}}, Annotate("plain", models.NewGenres()))
		assert.Empty(t, Annotate("", genresOf("rock")))
	})
}

func TestLiteralReconstructs(t *testing.T) {
	cases := []struct {
		text   string
		genres []string
	}{
		{"I love indie rock and rock", []string{"rock", "indie rock"}},
		{"rockrockrock", []string{"rock", "ck", "r"}},
		{"", []string{"a"}},
		{"no matches here", []string{"zydeco"}},
		{"aaaa", []string{"a", "aa", "aaa"}},
		{"lo-fi hip hop beats", []string{"hip hop", "lo-fi", "lo-fi hip hop", "", "beats"}},
		{"ünïcödé ünï", []string{"ünï", "cö"}},
	}

	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			assert.Equal(t, c.text, Literal(Annotate(c.text, genresOf(c.genres...))))
		})
	}
}

func TestMentions(t *testing.T) {
	segs := Annotate("rock then jazz then rock", genresOf("jazz", "rock"))
	assert.Equal(t, []string{"rock", "jazz"}, Mentions(segs))
}
