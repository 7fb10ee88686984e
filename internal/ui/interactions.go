package ui

import (
	"math/rand/v2"
	"sync"

	"github.com/desertthunder/spotme/internal/annotate"
	"github.com/desertthunder/spotme/internal/shared"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// Interactions binds rendered mentions to one [Slot].
//
// Each bound [Mention] is kept in an arena keyed by its id, so its artist pick
// survives re-renders until [Interactions.Reset].
type Interactions struct {
	slot  Slot
	pick  Picker
	mu    sync.Mutex
	arena map[string]*Mention
	order []string
}

// NewInteractions creates a controller writing to slot. A nil pick uses [rand.IntN].
func NewInteractions(slot Slot, pick Picker) *Interactions {
	if pick == nil {
		pick = rand.IntN
	}
	return &Interactions{slot: slot, pick: pick, arena: map[string]*Mention{}}
}

// Bind registers a rendered mention and picks its artist once.
func (in *Interactions) Bind(m annotate.GenreMention) *Mention {
	detail := &Detail{MentionID: shared.GenerateID(), Genre: m.Genre}
	if n := len(m.Metadata.Artists); n > 0 {
		detail.Artist = m.Metadata.Artists[in.pick(n)]
		detail.HasArtist = true
	}

	mention := &Mention{id: detail.MentionID, detail: detail, slot: in.slot}

	in.mu.Lock()
	in.arena[mention.id] = mention
	in.order = append(in.order, mention.id)
	in.mu.Unlock()
	return mention
}

// Get returns the bound mention with id.
func (in *Interactions) Get(id string) (*Mention, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	m, ok := in.arena[id]
	return m, ok
}

// Mentions returns bound mentions in bind order.
func (in *Interactions) Mentions() []*Mention {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*Mention, 0, len(in.order))
	for _, id := range in.order {
		out = append(out, in.arena[id])
	}
	return out
}

// Dismiss hides the slot and keeps its content.
func (in *Interactions) Dismiss() {
	in.slot.SetVisible(false)
}

// Reset drops every bound mention and clears the slot.
func (in *Interactions) Reset() {
	in.mu.Lock()
	in.arena = map[string]*Mention{}
	in.order = nil
	in.mu.Unlock()
	in.slot.SetContent(nil)
}

func (in *Interactions) Slot() Slot { return in.slot }

// Mention is one rendered genre mention with its cached detail.
type Mention struct {
	id     string
	detail *Detail
	slot   Slot
}

func (m *Mention) ID() string      { return m.id }
func (m *Mention) Detail() *Detail { return m.detail }

// Focus shows this mention's detail.
func (m *Mention) Focus() {
	m.slot.SetContent(m.detail)
}

// Blur clears and hides the slot.
func (m *Mention) Blur() {
	m.slot.SetContent(nil)
}

// Activate hides the slot if it is showing this mention, otherwise shows it.
func (m *Mention) Activate() {
	if m.Showing() {
		m.slot.SetContent(nil)
		return
	}
	m.slot.SetContent(m.detail)
}

// Showing reports whether the slot is visibly showing this mention.
func (m *Mention) Showing() bool {
	d, ok := Showing(m.slot)
	return ok && d.MentionID == m.id
}
