package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/shared"
)

// RecommendationRepository implements [models.Repository] for [models.Recommendation] history.
type RecommendationRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Recommendation] = (*RecommendationRepository)(nil)

// NewRecommendationRepository creates a new [RecommendationRepository] with the given database connection
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Save wraps result in a new [models.Recommendation] and inserts it.
func (r *RecommendationRepository) Save(ctx context.Context, result models.RecommendationResult) (*models.Recommendation, error) {
	rec := models.NewRecommendation(result)
	if err := r.create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a recommendation with a generated ID and sequence
func (r *RecommendationRepository) Create(rec *models.Recommendation) error {
	return r.create(context.Background(), rec)
}

func (r *RecommendationRepository) create(ctx context.Context, rec *models.Recommendation) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(rec.Result())
	if err != nil {
		return fmt.Errorf("failed to encode recommendation: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "recommendations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO recommendations (id, sequence, flier_image_url, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, id, sequence, nullString(rec.Result().FlierImageURL), string(payload), rec.CreatedAt(), rec.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	rec.SetID(id)
	rec.SetSequence(sequence)
	return nil
}

// Get retrieves a recommendation by ID
func (r *RecommendationRepository) Get(id string) (*models.Recommendation, error) {
	query := `
		SELECT id, sequence, payload, created_at, updated_at
		FROM recommendations
		WHERE id = ?
	`
	rec, err := scanRecommendation(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recommendation not found: %s", id)
	}
	return rec, err
}

// Latest returns the most recently stored recommendation.
func (r *RecommendationRepository) Latest(ctx context.Context) (*models.Recommendation, error) {
	query := `
		SELECT id, sequence, payload, created_at, updated_at
		FROM recommendations
		ORDER BY sequence DESC
		LIMIT 1
	`
	rec, err := scanRecommendation(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no stored recommendations")
	}
	return rec, err
}

// Update rewrites the stored payload of an existing recommendation
func (r *RecommendationRepository) Update(rec *models.Recommendation) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(rec.Result())
	if err != nil {
		return fmt.Errorf("failed to encode recommendation: %w", err)
	}

	rec.SetUpdatedAt(time.Now().UTC())
	query := `
		UPDATE recommendations
		SET flier_image_url = ?, payload = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, nullString(rec.Result().FlierImageURL), string(payload), rec.UpdatedAt(), rec.ID())
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("recommendation not found: %s", rec.ID())
	}
	return nil
}

// Delete removes a recommendation by ID
func (r *RecommendationRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM recommendations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("recommendation not found: %s", id)
	}
	return nil
}

// List retrieves recommendations newest first.
//
// Supported criteria: "limit" (int) and "since" ([time.Time]).
func (r *RecommendationRepository) List(criteria map[string]any) ([]*models.Recommendation, error) {
	query := `
		SELECT id, sequence, payload, created_at, updated_at
		FROM recommendations
		WHERE 1 = 1
	`
	args := []any{}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecommendation scans a row from either [sql.Row] or [sql.Rows].
func scanRecommendation(row scanner) (*models.Recommendation, error) {
	var (
		id        string
		sequence  int
		payload   string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &sequence, &payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}

	var result models.RecommendationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation %s: %w", id, err)
	}

	rec := models.NewRecommendation(result)
	rec.SetID(id)
	rec.SetSequence(sequence)
	rec.SetCreatedAt(createdAt)
	rec.SetUpdatedAt(updatedAt)
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
