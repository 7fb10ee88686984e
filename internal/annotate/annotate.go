// Package annotate splits free text into plain and genre-tagged segments.
package annotate

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/spotme/internal/models"
)

// Segment is one unit of annotated text.
type Segment interface {
	// Literal returns the text this segment covers.
	Literal() string
	segment()
}

// PlainText is untagged text.
type PlainText struct {
	Text string
}

func (p PlainText) Literal() string { return p.Text }
func (PlainText) segment()          {}

// GenreMention is an occurrence of a genre name.
type GenreMention struct {
	Genre    string
	Metadata models.GenreMetadata
}

func (g GenreMention) Literal() string { return g.Genre }
func (GenreMention) segment()          {}

// Annotate tags every literal occurrence of each genre name in text.
//
// Longer names are applied first, so a name is never split by a shorter name it contains.
// Names of equal length keep dictionary order. Tagged mentions are never rescanned and
// empty names are skipped.
func Annotate(text string, genres models.Genres) []Segment {
	segments := []Segment{}
	if text != "" {
		segments = append(segments, PlainText{Text: text})
	}

	for _, name := range orderedNames(genres) {
		meta, _ := genres.Get(name)
		segments = split(segments, name, meta)
	}
	return segments
}

// orderedNames sorts non-empty names by descending rune count, stable on ties.
func orderedNames(genres models.Genres) []string {
	names := slices.DeleteFunc(genres.Keys(), func(name string) bool { return name == "" })
	slices.SortStableFunc(names, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	return names
}

func split(segments []Segment, name string, meta models.GenreMetadata) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		plain, ok := seg.(PlainText)
		if !ok || !strings.Contains(plain.Text, name) {
			out = append(out, seg)
			continue
		}

		for i, piece := range strings.Split(plain.Text, name) {
			if i > 0 {
				out = append(out, GenreMention{Genre: name, Metadata: meta})
			}
			if piece != "" {
				out = append(out, PlainText{Text: piece})
			}
		}
	}
	return out
}

// Literal concatenates the literal text of segs.
func Literal(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Literal())
	}
	return b.String()
}

// Mentions returns the distinct genre names mentioned in segs, in first-seen order.
func Mentions(segs []Segment) []string {
	var names []string
	for _, s := range segs {
		if m, ok := s.(GenreMention); ok && !slices.Contains(names, m.Genre) {
			names = append(names, m.Genre)
		}
	}
	return names
}
