package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// identifierRe matches valid collection and field names.
var identifierRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedFields are implicit on every collection and may not be redefined.
var reservedFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ParseFile parses a collection definition from a YAML file.
func ParseFile(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a collection definition from YAML bytes.
func Parse(data []byte) (Collection, error) {
	var col Collection
	if err := yaml.Unmarshal(data, &col); err != nil {
		return Collection{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(col); err != nil {
		return Collection{}, fmt.Errorf("validate collection %q: %w", col.Name, err)
	}

	return col, nil
}

// ParseDir parses all collection definitions from a directory, including
// subdirectories.
func ParseDir(dir string) ([]Collection, error) {
	var collections []Collection

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			collections = append(collections, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		col, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		collections = append(collections, col)
	}

	return collections, nil
}

// Validate validates a collection definition.
func Validate(col Collection) error {
	if col.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if !identifierRe.MatchString(col.Name) {
		return fmt.Errorf("invalid collection name %q", col.Name)
	}

	switch col.Access {
	case "", AccessPublic, AccessAuthenticated, AccessAdmin:
	default:
		return fmt.Errorf("invalid access level %q", col.Access)
	}

	if len(col.Fields) == 0 {
		return fmt.Errorf("collection has no fields")
	}

	for name, field := range col.Fields {
		if !identifierRe.MatchString(name) {
			return fmt.Errorf("invalid field name %q", name)
		}
		if reservedFields[name] {
			return fmt.Errorf("field %q is reserved", name)
		}
		if !validTypes[field.Type] {
			return fmt.Errorf("field %q has invalid type %q", name, field.Type)
		}
		if field.Type == FieldTypeEnum && len(field.Values) == 0 {
			return fmt.Errorf("enum field %q has no values", name)
		}
		if field.Type != FieldTypeEnum && len(field.Values) > 0 {
			return fmt.Errorf("field %q has values but is not an enum", name)
		}
	}

	return nil
}
