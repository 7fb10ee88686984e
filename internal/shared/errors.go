package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("missing required configuration")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrVerifierMissing  = fmt.Errorf("missing required local storage: verifier")
	ErrAccessExpired    = fmt.Errorf("authorization code expired")
	ErrInvalidAuth      = fmt.Errorf("invalid authorization code")
	ErrProviderError    = fmt.Errorf("identity provider error")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrCallbackConsumed = fmt.Errorf("authorization redirect already consumed")

	// Recommendation endpoint errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrNotAllowlisted  = fmt.Errorf("member is not allowlisted")
	ErrServerError     = fmt.Errorf("recommendation server error")
	ErrClientError     = fmt.Errorf("recommendation request rejected")
	ErrAmbiguousResult = fmt.Errorf("ambiguous recommendation result")
	ErrStaleResult     = fmt.Errorf("recommendation result is stale")

	// Persistence errors
	ErrSlotNotFound = fmt.Errorf("storage slot not found")
	ErrNoMigrations = fmt.Errorf("no migrations to roll back")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
