package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotme/internal/annotate"
	"github.com/desertthunder/spotme/internal/models"
)

func mentionOf(genre string, artists ...string) annotate.GenreMention {
	meta := models.GenreMetadata{}
	for _, a := range artists {
		meta.Artists = append(meta.Artists, models.ArtistRef{Name: a, ProfileURL: "https://open.spotify.com/artist/" + a})
	}
	return annotate.GenreMention{Genre: genre, Metadata: meta}
}

func TestOverlaySlot(t *testing.T) {
	slot := NewOverlaySlot()
	assert.False(t, slot.Visible())
	assert.Nil(t, slot.Content())

	d := &Detail{MentionID: "a"}
	slot.SetContent(d)
	assert.True(t, slot.Visible())
	assert.Same(t, d, slot.Content())

	slot.SetVisible(false)
	assert.False(t, slot.Visible())
	assert.Same(t, d, slot.Content(), "hiding keeps stale content")

	_, showing := Showing(slot)
	assert.False(t, showing)

	slot.SetContent(nil)
	assert.False(t, slot.Visible())
	assert.Nil(t, slot.Content())
}

func TestMention(t *testing.T) {
	t.Run("focus shows and blur clears", func(t *testing.T) {
		in := NewInteractions(NewOverlaySlot(), nil)
		m := in.Bind(mentionOf("rock", "A"))

		m.Focus()
		d, ok := Showing(in.Slot())
		require.True(t, ok)
		assert.Equal(t, m.ID(), d.MentionID)
		assert.Equal(t, "A", d.Artist.Name)

		m.Blur()
		assert.False(t, in.Slot().Visible())
		assert.Nil(t, in.Slot().Content())
	})

	t.Run("double activate toggles with the same pick", func(t *testing.T) {
		calls := 0
		pick := func(n int) int {
			calls++
			return calls % n
		}
		in := NewInteractions(NewOverlaySlot(), pick)
		m := in.Bind(mentionOf("jazz", "A", "B", "C"))
		require.Equal(t, 1, calls)
		chosen := m.Detail().Artist

		m.Activate()
		d, ok := Showing(in.Slot())
		require.True(t, ok)
		assert.Equal(t, chosen, d.Artist)

		m.Activate()
		assert.False(t, in.Slot().Visible())

		m.Activate()
		d, ok = Showing(in.Slot())
		require.True(t, ok)
		assert.Equal(t, chosen, d.Artist)
		assert.Equal(t, 1, calls, "pick happens once per bound mention")
	})

	t.Run("activating another mention replaces content", func(t *testing.T) {
		in := NewInteractions(NewOverlaySlot(), nil)
		a := in.Bind(mentionOf("rock", "A"))
		b := in.Bind(mentionOf("rock", "B"))

		a.Activate()
		b.Activate()
		assert.True(t, b.Showing())
		assert.False(t, a.Showing())

		a.Activate()
		assert.True(t, a.Showing())
	})

	t.Run("activate after dismiss shows again", func(t *testing.T) {
		in := NewInteractions(NewOverlaySlot(), nil)
		m := in.Bind(mentionOf("pop", "A"))

		m.Activate()
		in.Dismiss()
		assert.False(t, in.Slot().Visible())
		assert.NotNil(t, in.Slot().Content())

		m.Activate()
		assert.True(t, m.Showing())
	})

	t.Run("mention without artists", func(t *testing.T) {
		in := NewInteractions(NewOverlaySlot(), func(int) int { t.Fatal("pick must not run"); return 0 })
		m := in.Bind(mentionOf("noise"))
		assert.False(t, m.Detail().HasArtist)
	})
}

func TestInteractionsArena(t *testing.T) {
	in := NewInteractions(NewOverlaySlot(), nil)
	a := in.Bind(mentionOf("rock", "A"))
	b := in.Bind(mentionOf("pop", "B"))
	assert.NotEqual(t, a.ID(), b.ID())

	got, ok := in.Get(b.ID())
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []*Mention{a, b}, in.Mentions())

	a.Focus()
	in.Reset()
	assert.Empty(t, in.Mentions())
	assert.False(t, in.Slot().Visible())
	_, ok = in.Get(a.ID())
	assert.False(t, ok)
}
