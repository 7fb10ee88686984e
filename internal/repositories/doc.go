// Package repositories implements SQLite persistence for durable client state.
//
// Key Implementations:
//   - [SlotRepository] : named string slots, used for the PKCE verifier through [VerifierStore]
//   - [RecommendationRepository] : history of fetched recommendation results
//
// Recommendation payloads are stored as JSON with genre order preserved, so a replayed
// result annotates exactly as it did when fetched.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
