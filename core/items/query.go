package items

import "github.com/artpar/socketgate/core/storage"

// Query is the structured filter/sort/pagination object accepted by
// query-shaped operations.
type Query struct {
	// Filter holds field-value pairs matched by equality. A slice value
	// matches any of its elements.
	Filter map[string]any `json:"filter,omitempty"`

	// Sort is the field to order by. A leading "-" reverses the order.
	Sort string `json:"sort,omitempty"`

	// Limit caps the number of returned records. Zero means the default.
	Limit int `json:"limit,omitempty"`

	// Offset skips records for pagination.
	Offset int `json:"offset,omitempty"`
}

// Meta is the aggregate information returned alongside query-shaped reads.
type Meta struct {
	// TotalCount is the number of records in the collection.
	TotalCount int64 `json:"total_count"`

	// FilterCount is the number of records matching the query filter.
	FilterCount int64 `json:"filter_count"`
}

// listOptions converts the query into storage list options.
func (q Query) listOptions() storage.ListOptions {
	opts := storage.ListOptions{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Filters: q.Filter,
		OrderBy: q.Sort,
	}
	if len(opts.OrderBy) > 0 && opts.OrderBy[0] == '-' {
		opts.OrderBy = opts.OrderBy[1:]
		opts.OrderDesc = true
	}
	return opts
}
