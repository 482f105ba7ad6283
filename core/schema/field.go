package schema

// Field defines a data field in a collection's schema.
type Field struct {
	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type"`

	// Unique indicates this field must have unique values.
	Unique bool `yaml:"unique,omitempty"`

	// Required indicates this field must be provided on create.
	Required *bool `yaml:"required,omitempty"`

	// Default value for this field.
	Default any `yaml:"default,omitempty"`

	// Values lists valid values for enum type fields.
	Values []string `yaml:"values,omitempty"`

	// Internal marks fields that are never exposed in replies.
	Internal bool `yaml:"internal,omitempty"`

	// Index creates a database index on this field.
	Index bool `yaml:"index,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeText      FieldType = "text"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"

	// FieldTypeEnum requires Values.
	FieldTypeEnum FieldType = "enum"
)

// IsRequired returns whether the field is required.
// Fields are optional by default unless explicitly marked as required.
func (f Field) IsRequired() bool {
	if f.Required != nil {
		return *f.Required
	}
	return false
}

// SQLType returns the SQLite column type for this field.
func (f Field) SQLType() string {
	switch f.Type {
	case FieldTypeInt, FieldTypeBool:
		return "INTEGER"
	case FieldTypeFloat:
		return "REAL"
	case FieldTypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// validTypes is the set of accepted field types.
var validTypes = map[FieldType]bool{
	FieldTypeString:    true,
	FieldTypeText:      true,
	FieldTypeInt:       true,
	FieldTypeFloat:     true,
	FieldTypeBool:      true,
	FieldTypeTimestamp: true,
	FieldTypeJSON:      true,
	FieldTypeEnum:      true,
}
