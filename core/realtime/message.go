// Package realtime turns inbound action messages into data operations and
// exactly one reply per handled message. It is the message router for the
// "ITEMS" message domain carried over websocket connections.
package realtime

import (
	"github.com/artpar/socketgate/core/items"
)

// MessageType is the discriminant of inbound messages this router owns.
// Messages carrying any other type are silently ignored.
const MessageType = "ITEMS"

// Action is a requested CRUD operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Shape identifies which variant of an action was requested. It is resolved
// explicitly right after parsing; arbitrary field combinations never pick a
// branch silently.
type Shape int

const (
	// ShapeData is a bare collection message whose payload is under "data".
	ShapeData Shape = iota

	// ShapeSingle targets one record via "id".
	ShapeSingle

	// ShapeBatch targets an ordered sequence of records via "ids".
	ShapeBatch

	// ShapeQuery targets records matching a structured "query".
	ShapeQuery
)

// Operation is the tagged form of a parsed action message.
type Operation struct {
	Action Action
	Shape  Shape

	// Data is the single-record payload for create/update.
	Data map[string]any

	// Records is the multi-record payload for batch create.
	Records []map[string]any

	// Many reports whether the payload arrived as a sequence.
	Many bool

	// ID is the normalized single identifier.
	ID string

	// RawID is the identifier exactly as the client sent it.
	RawID any

	// IDs is the identifier sequence, passed through unmodified.
	IDs []any

	// Query is the structured filter for query-shaped variants.
	Query items.Query
}

// ParseOperation resolves a raw action message into a tagged Operation.
// Exactly one of the shape-signal fields ("id", "ids", "query") may be
// present; precedence for reporting is id, ids, query. A message mixing
// them fails fast instead of silently picking a branch.
func ParseOperation(raw map[string]any) (Operation, error) {
	var op Operation

	action, _ := raw["action"].(string)
	switch Action(action) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		op.Action = Action(action)
	default:
		return op, items.Errorf(items.CodeInvalidPayload, "unknown action %q", action)
	}

	rawID, hasID := signal(raw, "id")
	rawIDs, hasIDs := signal(raw, "ids")
	rawQuery, hasQuery := signal(raw, "query")

	signals := 0
	for _, present := range []bool{hasID, hasIDs, hasQuery} {
		if present {
			signals++
		}
	}
	if signals > 1 {
		return op, items.NewError(items.CodeInvalidPayload,
			"message mixes shape fields; provide exactly one of id, ids or query")
	}

	switch {
	case hasID:
		op.Shape = ShapeSingle
		op.RawID = rawID
		op.ID = items.IDString(rawID)
	case hasIDs:
		seq, ok := rawIDs.([]any)
		if !ok {
			return op, items.NewError(items.CodeInvalidPayload, "ids must be a sequence")
		}
		op.Shape = ShapeBatch
		op.IDs = seq
	case hasQuery:
		obj, ok := rawQuery.(map[string]any)
		if !ok {
			return op, items.NewError(items.CodeInvalidPayload, "query must be an object")
		}
		q, err := parseQuery(obj)
		if err != nil {
			return op, err
		}
		op.Shape = ShapeQuery
		op.Query = q
	default:
		op.Shape = ShapeData
	}

	if data, present := signal(raw, "data"); present {
		switch payload := data.(type) {
		case map[string]any:
			op.Data = payload
		case []any:
			records := make([]map[string]any, 0, len(payload))
			for _, item := range payload {
				record, ok := item.(map[string]any)
				if !ok {
					return op, items.NewError(items.CodeInvalidPayload, "data sequence must contain objects")
				}
				records = append(records, record)
			}
			op.Records = records
			op.Many = true
		default:
			return op, items.NewError(items.CodeInvalidPayload, "data must be an object or a sequence of objects")
		}
	}

	if err := op.validate(); err != nil {
		return op, err
	}

	return op, nil
}

// validate checks that the action supports the resolved shape.
func (op Operation) validate() error {
	switch op.Action {
	case ActionCreate:
		if op.Shape != ShapeData {
			return items.NewError(items.CodeInvalidPayload, "create does not accept id, ids or query")
		}
		if op.Data == nil && !op.Many {
			return items.NewError(items.CodeInvalidPayload, "create requires a data payload")
		}
	case ActionRead:
		if op.Shape != ShapeQuery {
			return items.NewError(items.CodeInvalidPayload, "read requires a query")
		}
	case ActionUpdate:
		if op.Shape != ShapeSingle && op.Shape != ShapeBatch {
			return items.NewError(items.CodeInvalidPayload, "update requires id or ids")
		}
		if op.Many || op.Data == nil {
			return items.NewError(items.CodeInvalidPayload, "update requires a single data object")
		}
	case ActionDelete:
		if op.Shape == ShapeData {
			return items.NewError(items.CodeInvalidPayload, "delete requires id, ids or query")
		}
		if op.Data != nil || op.Many {
			return items.NewError(items.CodeInvalidPayload, "delete does not accept a data payload")
		}
	}
	return nil
}

// signal reports a field as present only when it carries a non-null value.
func signal(raw map[string]any, key string) (any, bool) {
	val, ok := raw[key]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

// parseQuery extracts a structured query from a decoded JSON object.
func parseQuery(obj map[string]any) (items.Query, error) {
	var q items.Query

	if filter, ok := obj["filter"]; ok && filter != nil {
		m, ok := filter.(map[string]any)
		if !ok {
			return q, items.NewError(items.CodeInvalidPayload, "query filter must be an object")
		}
		q.Filter = m
	}

	if sortVal, ok := obj["sort"]; ok && sortVal != nil {
		s, ok := sortVal.(string)
		if !ok {
			return q, items.NewError(items.CodeInvalidPayload, "query sort must be a string")
		}
		q.Sort = s
	}

	var err error
	if q.Limit, err = intField(obj, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intField(obj, "offset"); err != nil {
		return q, err
	}

	return q, nil
}

// intField reads an optional integer field from a decoded JSON object.
func intField(obj map[string]any, key string) (int, error) {
	val, ok := obj[key]
	if !ok || val == nil {
		return 0, nil
	}
	switch n := val.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, items.Errorf(items.CodeInvalidPayload, "query %s must be a number", key)
	}
}
