// package models defines the data model for the recommendation client
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Recommendation is a persisted [RecommendationResult].
type Recommendation struct {
	id        string
	sequence  int
	result    RecommendationResult
	createdAt time.Time
	updatedAt time.Time
}

// NewRecommendation wraps result for persistence. The ID is assigned by the repository.
func NewRecommendation(result RecommendationResult) *Recommendation {
	now := time.Now().UTC()
	return &Recommendation{result: result, createdAt: now, updatedAt: now}
}

func (r *Recommendation) ID() string                   { return r.id }
func (r *Recommendation) Sequence() int                { return r.sequence }
func (r *Recommendation) Result() RecommendationResult { return r.result }
func (r *Recommendation) CreatedAt() time.Time         { return r.createdAt }
func (r *Recommendation) UpdatedAt() time.Time         { return r.updatedAt }

func (r *Recommendation) SetID(id string)          { r.id = id }
func (r *Recommendation) SetSequence(seq int)      { r.sequence = seq }
func (r *Recommendation) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Recommendation) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Recommendation) SetResult(res RecommendationResult) {
	r.result = res
	r.updatedAt = time.Now().UTC()
}

// Validate checks the wrapped result.
func (r *Recommendation) Validate() error {
	return r.result.Validate()
}
