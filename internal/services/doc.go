// Package services implements clients for remote HTTP APIs.
//
// # Recommendation Endpoint
//
// [RecommendationService] implements [Recommender] against the Spot Me top items endpoint.
// The access token travels as the access_token query parameter and every response is a
// tagged envelope:
//
//	{ "code": 0, "result": {...}, "error": "..." }
//
// [ClassifyEnvelope] maps the envelope onto shared sentinels, in this order:
//   - code 0 with a non-null result: success
//   - code 3: [shared.ErrNotAllowlisted]
//   - code 1: [shared.ErrServerError]
//   - code 2: [shared.ErrClientError]
//   - anything else: [shared.ErrAmbiguousResult]
//
// The envelope is inspected with gjson so a missing or null result is told apart from an
// empty one. Requests pass through a [rate.Limiter] and are never retried.
package services
