package realtime

import (
	"reflect"
	"strings"
	"testing"

	"github.com/artpar/socketgate/core/items"
)

func TestParseOperationShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		shape Shape
	}{
		{
			name:  "create with data object",
			raw:   map[string]any{"action": "create", "data": map[string]any{"a": 1}},
			shape: ShapeData,
		},
		{
			name:  "single via id",
			raw:   map[string]any{"action": "delete", "id": "abc"},
			shape: ShapeSingle,
		},
		{
			name:  "batch via ids",
			raw:   map[string]any{"action": "delete", "ids": []any{"a", "b"}},
			shape: ShapeBatch,
		},
		{
			name:  "query variant",
			raw:   map[string]any{"action": "read", "query": map[string]any{}},
			shape: ShapeQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op, err := ParseOperation(tc.raw)
			if err != nil {
				t.Fatalf("ParseOperation: %v", err)
			}
			if op.Shape != tc.shape {
				t.Errorf("shape = %v, want %v", op.Shape, tc.shape)
			}
		})
	}
}

func TestParseOperationRejectsMixedSignals(t *testing.T) {
	raws := []map[string]any{
		{"action": "delete", "id": "a", "ids": []any{"b"}},
		{"action": "delete", "id": "a", "query": map[string]any{}},
		{"action": "delete", "ids": []any{"a"}, "query": map[string]any{}},
		{"action": "delete", "id": "a", "ids": []any{"b"}, "query": map[string]any{}},
	}

	for _, raw := range raws {
		_, err := ParseOperation(raw)
		if err == nil {
			t.Fatalf("expected error for %v", raw)
		}
		serviceErr, ok := err.(*items.Error)
		if !ok || serviceErr.Code != items.CodeInvalidPayload {
			t.Errorf("expected INVALID_PAYLOAD, got %v", err)
		}
		if !strings.Contains(serviceErr.Message, "exactly one of") {
			t.Errorf("unexpected message: %s", serviceErr.Message)
		}
	}
}

func TestParseOperationNullSignalIsAbsent(t *testing.T) {
	// A JSON null under a shape field does not count as present.
	op, err := ParseOperation(map[string]any{
		"action": "delete",
		"id":     "abc",
		"ids":    nil,
		"query":  nil,
	})
	if err != nil {
		t.Fatalf("ParseOperation: %v", err)
	}
	if op.Shape != ShapeSingle {
		t.Errorf("shape = %v, want ShapeSingle", op.Shape)
	}
}

func TestParseOperationNumericID(t *testing.T) {
	op, err := ParseOperation(map[string]any{"action": "delete", "id": float64(42)})
	if err != nil {
		t.Fatalf("ParseOperation: %v", err)
	}
	if op.ID != "42" {
		t.Errorf("ID = %q, want %q", op.ID, "42")
	}
	if op.RawID != float64(42) {
		t.Errorf("RawID = %v, want 42", op.RawID)
	}
}

func TestParseOperationPreservesIDSequence(t *testing.T) {
	ids := []any{"123", float64(456), "789"}
	op, err := ParseOperation(map[string]any{"action": "delete", "ids": ids})
	if err != nil {
		t.Fatalf("ParseOperation: %v", err)
	}
	if !reflect.DeepEqual(op.IDs, ids) {
		t.Errorf("IDs = %v, want %v", op.IDs, ids)
	}
}

func TestParseOperationBatchData(t *testing.T) {
	op, err := ParseOperation(map[string]any{
		"action": "create",
		"data":   []any{map[string]any{"a": 1}, map[string]any{"b": 2}},
	})
	if err != nil {
		t.Fatalf("ParseOperation: %v", err)
	}
	if !op.Many || len(op.Records) != 2 {
		t.Errorf("expected 2 batch records, got Many=%v Records=%v", op.Many, op.Records)
	}
}

func TestParseOperationActionRules(t *testing.T) {
	bad := []map[string]any{
		{"action": "bogus"},
		{"action": "create"},                                                       // no payload
		{"action": "create", "id": "a", "data": map[string]any{}},                  // create rejects shapes
		{"action": "read"},                                                         // read needs query
		{"action": "read", "id": "a"},                                              // read only takes query
		{"action": "update", "data": map[string]any{}},                             // update needs id/ids
		{"action": "update", "query": map[string]any{}, "data": map[string]any{}},  // no query update
		{"action": "update", "id": "a"},                                            // update needs data
		{"action": "update", "id": "a", "data": []any{map[string]any{}}},           // single object only
		{"action": "delete"},                                                       // delete needs a shape
		{"action": "delete", "id": "a", "data": map[string]any{}},                  // delete takes no data
		{"action": "delete", "ids": "not-a-sequence"},                              // ids must be a sequence
		{"action": "read", "query": "not-an-object"},                               // query must be an object
		{"action": "create", "data": "scalar"},                                     // data must be object/sequence
		{"action": "create", "data": []any{"scalar"}},                              // sequence of objects only
	}

	for _, raw := range bad {
		if _, err := ParseOperation(raw); err == nil {
			t.Errorf("expected error for %v", raw)
		}
	}
}

func TestParseQueryFields(t *testing.T) {
	op, err := ParseOperation(map[string]any{
		"action": "read",
		"query": map[string]any{
			"filter": map[string]any{"status": "published"},
			"sort":   "-created_at",
			"limit":  float64(25),
			"offset": float64(50),
		},
	})
	if err != nil {
		t.Fatalf("ParseOperation: %v", err)
	}

	q := op.Query
	if q.Filter["status"] != "published" {
		t.Errorf("filter = %v", q.Filter)
	}
	if q.Sort != "-created_at" || q.Limit != 25 || q.Offset != 50 {
		t.Errorf("query = %+v", q)
	}
}

func TestParseQueryRejectsBadFieldTypes(t *testing.T) {
	bad := []map[string]any{
		{"filter": "x"},
		{"sort": float64(1)},
		{"limit": "ten"},
		{"offset": true},
	}

	for _, query := range bad {
		_, err := ParseOperation(map[string]any{"action": "read", "query": query})
		if err == nil {
			t.Errorf("expected error for query %v", query)
		}
	}
}
