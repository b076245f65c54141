// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Each file holds the models of one bounded context together with its
// FromDomain/ToDomain mappers. Nested collections that are always read with
// their owner (tax lines, adjustments, option values) are stored as JSON
// columns; everything that is queried on its own gets a table.
package models
