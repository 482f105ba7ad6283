package realtime

import (
	"testing"

	"github.com/artpar/socketgate/core/items"
)

func encode(t *testing.T, r Reply) string {
	t.Helper()
	text, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return text
}

func TestEncodeSuccess(t *testing.T) {
	got := encode(t, OK(map[string]any{"id": "abc"}))
	want := `{"type":"items","status":"ok","data":{"id":"abc"}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeSuccessWithMeta(t *testing.T) {
	got := encode(t, OKWithMeta(
		[]map[string]any{{"id": "a"}},
		items.Meta{TotalCount: 5, FilterCount: 1},
	))
	want := `{"type":"items","status":"ok","data":[{"id":"a"}],"meta":{"total_count":5,"filter_count":1}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeEmptyResultIsEmptySequence(t *testing.T) {
	got := encode(t, OK([]map[string]any{}))
	want := `{"type":"items","status":"ok","data":[]}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeNullData(t *testing.T) {
	// Query-shaped deletes reply with a null data member.
	got := encode(t, OK(nil))
	want := `{"type":"items","status":"ok","data":null}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeError(t *testing.T) {
	got := encode(t, Err(items.CodeInvalidCollection, invalidCollectionMessage))
	want := `{"type":"items","status":"error","error":{"code":"INVALID_COLLECTION","message":"The provided collection does not exists or is not accessible."}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
