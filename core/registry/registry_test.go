package registry

import (
	"testing"

	"github.com/artpar/socketgate/core/schema"
)

func collection(name string, access schema.AccessLevel) schema.Collection {
	return schema.Collection{
		Name:   name,
		Access: access,
		Fields: map[string]schema.Field{
			"title": {Type: schema.FieldTypeString},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()

	if err := r.Register(collection("articles", schema.AccessPublic)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	col, ok := r.Get("articles")
	if !ok || col.Name != "articles" {
		t.Errorf("Get = %v, %v", col, ok)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get reported a missing collection")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()

	if err := r.Register(collection("articles", schema.AccessPublic)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(collection("articles", schema.AccessPublic)); err == nil {
		t.Error("duplicate registration accepted")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	r := New()
	r.Register(collection("articles", schema.AccessPublic))

	all := r.All()
	delete(all, "articles")

	if _, ok := r.Get("articles"); !ok {
		t.Error("mutating the All snapshot affected the registry")
	}
}

func TestCollectionsFiltersByVisibility(t *testing.T) {
	r := New()
	r.Register(collection("open", schema.AccessPublic))
	r.Register(collection("members", schema.AccessAuthenticated))
	r.Register(collection("internal", schema.AccessAdmin))

	tests := []struct {
		name string
		acct schema.Accountability
		want []string
	}{
		{"anonymous", schema.Accountability{}, []string{"open"}},
		{"user", schema.Accountability{UserID: "u1"}, []string{"open", "members"}},
		{"admin", schema.Accountability{UserID: "u2", Admin: true}, []string{"open", "members", "internal"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			visible := r.Collections(tc.acct)
			if len(visible) != len(tc.want) {
				t.Fatalf("got %d collections, want %d: %v", len(visible), len(tc.want), visible)
			}
			for _, name := range tc.want {
				if _, ok := visible[name]; !ok {
					t.Errorf("collection %q missing from snapshot", name)
				}
			}
		})
	}
}
