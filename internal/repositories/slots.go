package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/shared"
)

// VerifierSlot is the storage slot holding the current PKCE verifier.
const VerifierSlot = "verifier"

// SlotRepository stores named string values that survive process restarts.
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository creates a new [SlotRepository] with the given database connection
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Get returns the value stored under name, or [shared.ErrSlotNotFound].
func (r *SlotRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM storage_slots WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrSlotNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query slot: %w", err)
	}
	return value, nil
}

// Put writes value under name, replacing any previous value.
func (r *SlotRepository) Put(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO storage_slots (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

// Delete removes name. Deleting a missing slot is not an error.
func (r *SlotRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM storage_slots WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}

// VerifierStore adapts the [VerifierSlot] to [auth.VerifierStore].
type VerifierStore struct {
	slots *SlotRepository
}

var _ auth.VerifierStore = (*VerifierStore)(nil)

func NewVerifierStore(slots *SlotRepository) *VerifierStore {
	return &VerifierStore{slots: slots}
}

func (s *VerifierStore) SaveVerifier(ctx context.Context, verifier string) error {
	return s.slots.Put(ctx, VerifierSlot, verifier)
}

func (s *VerifierStore) LoadVerifier(ctx context.Context) (string, error) {
	v, err := s.slots.Get(ctx, VerifierSlot)
	if errors.Is(err, shared.ErrSlotNotFound) || (err == nil && v == "") {
		return "", shared.ErrVerifierMissing
	}
	return v, err
}
