package schema

import (
	"os"
	"path/filepath"
	"testing"
)

const articlesYAML = `
collection: articles
access: public
fields:
  title:
    type: string
    required: true
  body:
    type: text
  status:
    type: enum
    values: [draft, published]
  views:
    type: int
    default: 0
    index: true
`

func TestParseCollection(t *testing.T) {
	col, err := Parse([]byte(articlesYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if col.Name != "articles" {
		t.Errorf("name = %q", col.Name)
	}
	if col.Access != AccessPublic {
		t.Errorf("access = %q", col.Access)
	}
	if len(col.Fields) != 4 {
		t.Errorf("fields = %d", len(col.Fields))
	}

	title := col.Fields["title"]
	if title.Type != FieldTypeString || !title.IsRequired() {
		t.Errorf("title = %+v", title)
	}

	status := col.Fields["status"]
	if status.Type != FieldTypeEnum || len(status.Values) != 2 {
		t.Errorf("status = %+v", status)
	}

	views := col.Fields["views"]
	if !views.Index {
		t.Errorf("views = %+v", views)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		col  Collection
	}{
		{
			name: "missing name",
			col:  Collection{Fields: map[string]Field{"a": {Type: FieldTypeString}}},
		},
		{
			name: "invalid name",
			col:  Collection{Name: "Bad-Name", Fields: map[string]Field{"a": {Type: FieldTypeString}}},
		},
		{
			name: "no fields",
			col:  Collection{Name: "empty"},
		},
		{
			name: "invalid access level",
			col: Collection{Name: "c", Access: "secret",
				Fields: map[string]Field{"a": {Type: FieldTypeString}}},
		},
		{
			name: "reserved field",
			col: Collection{Name: "c",
				Fields: map[string]Field{"id": {Type: FieldTypeString}}},
		},
		{
			name: "invalid field type",
			col: Collection{Name: "c",
				Fields: map[string]Field{"a": {Type: "blob"}}},
		},
		{
			name: "enum without values",
			col: Collection{Name: "c",
				Fields: map[string]Field{"a": {Type: FieldTypeEnum}}},
		},
		{
			name: "values on non-enum",
			col: Collection{Name: "c",
				Fields: map[string]Field{"a": {Type: FieldTypeString, Values: []string{"x"}}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.col); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseDirRecursive(t *testing.T) {
	dir := t.TempDir()

	write := func(path, name string) {
		content := "collection: " + name + "\nfields:\n  title:\n    type: string\n"
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(filepath.Join(dir, "articles.yaml"), "articles")
	write(filepath.Join(dir, "nested", "comments.yml"), "comments")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	collections, err := ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("got %d collections", len(collections))
	}
}

func TestParseDirFailsOnBadDefinition(t *testing.T) {
	dir := t.TempDir()

	bad := "collection: BadName\nfields:\n  title:\n    type: string\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ParseDir(dir); err == nil {
		t.Error("expected error for invalid collection name")
	}
}

func TestVisibleTo(t *testing.T) {
	anonymous := Accountability{}
	user := Accountability{UserID: "u1"}
	admin := Accountability{UserID: "u2", Admin: true}

	tests := []struct {
		access AccessLevel
		acct   Accountability
		want   bool
	}{
		{AccessPublic, anonymous, true},
		{AccessPublic, user, true},
		{AccessPublic, admin, true},
		{AccessAuthenticated, anonymous, false},
		{AccessAuthenticated, user, true},
		{AccessAuthenticated, admin, true},
		{AccessAdmin, anonymous, false},
		{AccessAdmin, user, false},
		{AccessAdmin, admin, true},
	}

	for _, tc := range tests {
		col := Collection{Name: "c", Access: tc.access}
		if got := col.VisibleTo(tc.acct); got != tc.want {
			t.Errorf("access %q acct %+v: visible = %v, want %v", tc.access, tc.acct, got, tc.want)
		}
	}
}
