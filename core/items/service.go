// Package items provides the per-collection data service used by channels.
// A Service is constructed per handled message with the target collection
// and the caller's accountability, and discarded after the reply is sent.
package items

import (
	"context"
	"fmt"
	"strconv"

	"github.com/artpar/socketgate/core/schema"
	"github.com/artpar/socketgate/core/storage"
	"github.com/rs/zerolog"
)

// Service exposes the primitive data operations for one collection.
type Service struct {
	collection schema.Collection
	store      storage.Store
	acct       schema.Accountability
	logger     zerolog.Logger
}

// NewService creates a service for a collection.
func NewService(col schema.Collection, store storage.Store, acct schema.Accountability, logger zerolog.Logger) *Service {
	return &Service{
		collection: col,
		store:      store,
		acct:       acct,
		logger:     logger.With().Str("collection", col.Name).Logger(),
	}
}

// CreateOne inserts a single record and returns its server-assigned ID.
func (s *Service) CreateOne(ctx context.Context, data map[string]any) (string, error) {
	if err := s.validateWrite(data); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, s.collection.Name, data)
	if err != nil {
		return "", err
	}

	s.logger.Debug().Str("id", id).Str("user", s.acct.UserID).Msg("record created")
	return id, nil
}

// CreateMany inserts records in order and returns their server-assigned IDs.
func (s *Service) CreateMany(ctx context.Context, data []map[string]any) ([]string, error) {
	ids := make([]string, 0, len(data))
	for _, record := range data {
		id, err := s.CreateOne(ctx, record)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadOne retrieves a single record by ID.
func (s *Service) ReadOne(ctx context.Context, id string) (map[string]any, error) {
	record, err := s.store.Get(ctx, s.collection.Name, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, Errorf(CodeRecordNotFound, "record %q not found", id)
	}
	return record, nil
}

// ReadMany retrieves records by ID, preserving the requested order.
func (s *Service) ReadMany(ctx context.Context, ids []any) ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(ids))
	for _, raw := range ids {
		record, err := s.ReadOne(ctx, IDString(raw))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadByQuery retrieves records matching a query.
func (s *Service) ReadByQuery(ctx context.Context, q Query) ([]map[string]any, error) {
	return s.store.List(ctx, s.collection.Name, q.listOptions())
}

// UpdateOne modifies a single record and returns its ID.
func (s *Service) UpdateOne(ctx context.Context, id string, data map[string]any) (string, error) {
	if err := s.validateWrite(data); err != nil {
		return "", err
	}

	if err := s.store.Update(ctx, s.collection.Name, id, data); err != nil {
		if record, getErr := s.store.Get(ctx, s.collection.Name, id); getErr == nil && record == nil {
			return "", Errorf(CodeRecordNotFound, "record %q not found", id)
		}
		return "", err
	}

	return id, nil
}

// UpdateMany applies the same change to each identified record in order.
// It returns the normalized IDs of the updated records.
func (s *Service) UpdateMany(ctx context.Context, ids []any, data map[string]any) ([]string, error) {
	updated := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := s.UpdateOne(ctx, IDString(raw), data)
		if err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, nil
}

// DeleteOne removes a single record by ID.
func (s *Service) DeleteOne(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.collection.Name, id)
}

// DeleteMany removes the identified records in order.
func (s *Service) DeleteMany(ctx context.Context, ids []any) error {
	for _, raw := range ids {
		if err := s.DeleteOne(ctx, IDString(raw)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByQuery removes all records matching a query filter.
func (s *Service) DeleteByQuery(ctx context.Context, q Query) error {
	removed, err := s.store.DeleteWhere(ctx, s.collection.Name, q.Filter)
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("removed", removed).Msg("records deleted by query")
	return nil
}

// MetaForQuery returns aggregate counts for a query.
func (s *Service) MetaForQuery(ctx context.Context, q Query) (Meta, error) {
	total, err := s.store.Count(ctx, s.collection.Name, nil)
	if err != nil {
		return Meta{}, err
	}

	filtered := total
	if len(q.Filter) > 0 {
		filtered, err = s.store.Count(ctx, s.collection.Name, q.Filter)
		if err != nil {
			return Meta{}, err
		}
	}

	return Meta{TotalCount: total, FilterCount: filtered}, nil
}

// validateWrite checks write data against the collection schema.
func (s *Service) validateWrite(data map[string]any) error {
	for name, val := range data {
		if name == "id" || name == "created_at" || name == "updated_at" {
			return Errorf(CodeInvalidPayload, "field %q cannot be written", name)
		}

		field, ok := s.collection.Fields[name]
		if !ok {
			return Errorf(CodeInvalidPayload, "unknown field %q", name)
		}
		if field.Internal {
			return Errorf(CodeInvalidPayload, "field %q cannot be written", name)
		}

		if field.Type == schema.FieldTypeEnum && val != nil {
			str, ok := val.(string)
			if !ok {
				return Errorf(CodeInvalidPayload, "field %q expects one of its enum values", name)
			}
			valid := false
			for _, allowed := range field.Values {
				if str == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return Errorf(CodeInvalidPayload, "field %q has invalid value %q", name, str)
			}
		}
	}
	return nil
}

// IDString normalizes an identifier that may arrive as a string or a JSON
// number. Clients are free to mix both in a single batch.
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
