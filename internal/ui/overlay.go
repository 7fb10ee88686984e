package ui

import (
	"sync"

	"github.com/desertthunder/spotme/internal/models"
)

// Detail is the overlay content built for one rendered mention.
type Detail struct {
	MentionID string
	Genre     string
	Artist    models.ArtistRef
	HasArtist bool
}

// Slot is the show/hide surface mentions write to.
type Slot interface {
	// SetContent stores d and shows the slot, or clears and hides it when d is nil.
	SetContent(d *Detail)
	// SetVisible toggles visibility and leaves content untouched.
	SetVisible(visible bool)
	Visible() bool
	Content() *Detail
}

// OverlaySlot is the single overlay region of a session.
type OverlaySlot struct {
	mu      sync.Mutex
	visible bool
	content *Detail
}

var _ Slot = (*OverlaySlot)(nil)

// NewOverlaySlot returns an empty, hidden slot.
func NewOverlaySlot() *OverlaySlot {
	return &OverlaySlot{}
}

func (o *OverlaySlot) SetContent(d *Detail) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.content = d
	o.visible = d != nil
}

func (o *OverlaySlot) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

func (o *OverlaySlot) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Content returns the last content set, which may be stale while hidden.
func (o *OverlaySlot) Content() *Detail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.content
}

// Showing returns the content when the slot is visible.
func Showing(s Slot) (*Detail, bool) {
	if !s.Visible() {
		return nil, false
	}
	d := s.Content()
	return d, d != nil
}
