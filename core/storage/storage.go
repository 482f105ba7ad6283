// Package storage provides a generic store for schema-defined collections.
// It dynamically creates tables and performs record operations based on
// collection definitions.
package storage

import (
	"context"

	"github.com/artpar/socketgate/core/schema"
)

// Store provides generic record operations for any collection.
type Store interface {
	// CreateTable creates the table backing a collection.
	CreateTable(ctx context.Context, col schema.Collection) error

	// Insert inserts a new record and returns its server-assigned ID.
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)

	// Get retrieves a record by ID. Returns (nil, nil) when not found.
	Get(ctx context.Context, collection string, id string) (map[string]any, error)

	// List retrieves records matching the options.
	List(ctx context.Context, collection string, opts ListOptions) ([]map[string]any, error)

	// Count returns the number of records matching the filters.
	// Nil filters count the whole collection.
	Count(ctx context.Context, collection string, filters map[string]any) (int64, error)

	// Update modifies an existing record.
	Update(ctx context.Context, collection string, id string, data map[string]any) error

	// Delete removes a record by ID.
	Delete(ctx context.Context, collection string, id string) error

	// DeleteWhere removes all records matching the filters and returns
	// the number removed.
	DeleteWhere(ctx context.Context, collection string, filters map[string]any) (int64, error)

	// Close closes the storage connection.
	Close() error
}

// ListOptions configures list queries.
type ListOptions struct {
	// Limit is the maximum number of records to return.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// Filters are field-value pairs to filter by. A slice value matches
	// any of its elements.
	Filters map[string]any

	// OrderBy is the field to sort by.
	OrderBy string

	// OrderDesc sorts in descending order.
	OrderDesc bool
}
