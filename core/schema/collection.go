// Package schema defines the core types for declarative collection definitions.
// A collection is a named set of records with typed fields. Definitions are
// loaded from YAML files and registered with the registry at startup.
package schema

// Collection is the root definition for a data collection.
type Collection struct {
	// Name is the collection name (e.g., "articles", "comments").
	// It doubles as the table name and must be a valid identifier.
	Name string `yaml:"collection"`

	// Fields defines the data fields owned by this collection.
	// The "id", "created_at" and "updated_at" fields are implicit.
	Fields map[string]Field `yaml:"fields"`

	// Access controls who can see and use this collection.
	// Defaults to AccessAuthenticated.
	Access AccessLevel `yaml:"access,omitempty"`

	// Meta contains optional metadata.
	Meta CollectionMeta `yaml:"meta,omitempty"`
}

// CollectionMeta contains optional collection metadata.
type CollectionMeta struct {
	// Version of the collection definition.
	Version string `yaml:"version,omitempty"`

	// Description for documentation.
	Description string `yaml:"description,omitempty"`
}

// AccessLevel controls collection visibility.
type AccessLevel string

const (
	// AccessPublic makes the collection visible to unauthenticated callers.
	AccessPublic AccessLevel = "public"

	// AccessAuthenticated requires an authenticated caller.
	AccessAuthenticated AccessLevel = "authenticated"

	// AccessAdmin requires an admin caller.
	AccessAdmin AccessLevel = "admin"
)

// Table returns the table name backing this collection.
func (c Collection) Table() string {
	return c.Name
}

// VisibleTo reports whether the collection is visible to the caller.
// An invisible collection is indistinguishable from a missing one.
func (c Collection) VisibleTo(acct Accountability) bool {
	switch c.Access {
	case AccessPublic:
		return true
	case AccessAdmin:
		return acct.Admin
	default:
		return acct.Admin || acct.UserID != ""
	}
}
