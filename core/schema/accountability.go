package schema

// Accountability identifies the caller on whose behalf an operation runs.
// It is established once per connection by the transport channel and carried
// unchanged through every message handled on that connection.
type Accountability struct {
	// UserID is the authenticated user ID. Empty for anonymous callers.
	UserID string

	// Role is the caller's role name.
	Role string

	// Admin grants unrestricted collection visibility.
	Admin bool
}

// Authenticated reports whether the caller has an identity.
func (a Accountability) Authenticated() bool {
	return a.UserID != "" || a.Admin
}
