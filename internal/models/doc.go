// Package models defines domain entities and persistence interfaces for the Spot Me recommendation client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the recommendation endpoint
//   - [RecommendationResult] : recommendation descriptions, genre dictionary and optional flier
//   - [Genres] : genre-name to [GenreMetadata] mapping that keeps document order
//   - [ArtistRef] : artist attribution for a genre
//
// 2. Persistent Entities: database-backed models
//   - [Recommendation] : a fetched [RecommendationResult] saved to history
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
