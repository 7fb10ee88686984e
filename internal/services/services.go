// package services defines clients for the HTTP APIs the recommendation client talks to
package services

import (
	"context"

	"github.com/desertthunder/spotme/internal/models"
)

// Recommender fetches recommendations on behalf of an access token holder.
type Recommender interface {
	// Fetch returns the recommendations for token.
	// Returns a classified error wrapping one of the shared recommendation sentinels.
	Fetch(ctx context.Context, token string) (*models.RecommendationResult, error)
}

// Envelope codes returned by the recommendation endpoint.
const (
	CodeOK             = 0
	CodeServerError    = 1
	CodeClientError    = 2
	CodeNotAllowlisted = 3
)
