package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// RecommendationResult is the success payload of the recommendation endpoint.
type RecommendationResult struct {
	Recommendations []string `json:"recommendations"`
	Genres          Genres   `json:"genres"`
	FlierImageURL   string   `json:"flierImageUrl,omitempty"`
}

// Validate requires every genre to carry at least one artist.
func (r RecommendationResult) Validate() error {
	for _, name := range r.Genres.Keys() {
		meta, _ := r.Genres.Get(name)
		if len(meta.Artists) == 0 {
			return fmt.Errorf("genre %q has no artists", name)
		}
	}
	return nil
}

// GenreMetadata describes the artists attributed to a genre.
type GenreMetadata struct {
	Artists []ArtistRef `json:"artists"`
}

// ArtistRef points at an artist's profile.
type ArtistRef struct {
	Name       string `json:"name"`
	ProfileURL string `json:"spotifyPageUrl"`
	ImageURL   string `json:"imageUrl"`
}

// Genres maps genre names to metadata and remembers insertion order.
//
// Decoding keeps the order keys appear in the JSON document, which is the
// tie-break order used when annotating genres of equal length.
type Genres struct {
	keys   []string
	values map[string]GenreMetadata
}

// NewGenres returns an empty [Genres].
func NewGenres() Genres {
	return Genres{values: map[string]GenreMetadata{}}
}

// Set stores meta under name. A repeated name keeps its first position.
func (g *Genres) Set(name string, meta GenreMetadata) {
	if g.values == nil {
		g.values = map[string]GenreMetadata{}
	}
	if _, ok := g.values[name]; !ok {
		g.keys = append(g.keys, name)
	}
	g.values[name] = meta
}

// Get returns the metadata stored under name.
func (g Genres) Get(name string) (GenreMetadata, bool) {
	meta, ok := g.values[name]
	return meta, ok
}

// Keys returns genre names in insertion order.
func (g Genres) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

func (g Genres) Len() int { return len(g.keys) }

// MarshalJSON encodes the genres as an object in insertion order.
func (g Genres) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(g.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of genres, keeping document order.
func (g *Genres) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("genres: invalid JSON")
	}

	parsed := gjson.ParseBytes(data)
	*g = NewGenres()
	if parsed.Type == gjson.Null {
		return nil
	}
	if !parsed.IsObject() {
		return fmt.Errorf("genres: expected object, got %s", parsed.Type)
	}

	var decodeErr error
	parsed.ForEach(func(key, value gjson.Result) bool {
		var meta GenreMetadata
		if err := json.Unmarshal([]byte(value.Raw), &meta); err != nil {
			decodeErr = fmt.Errorf("genres: %q: %w", key.String(), err)
			return false
		}
		g.Set(key.String(), meta)
		return true
	})
	return decodeErr
}
