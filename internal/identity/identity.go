// Package identity abstracts "who is the current user" behind an
// injected provider so review attribution is deterministic in tests and
// never read from ambient global state.
package identity

import "context"

// Identity is an authenticated user.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Provider resolves the identity for the current session. A nil return
// means the session is anonymous; reviews then carry only the typed
// display name.
type Provider interface {
	Current(ctx context.Context) *Identity
}

// Static always returns the same identity, seeded from configuration.
// It stands in for a real session backend.
type Static struct {
	identity *Identity
}

// NewStatic creates a provider for a fixed identity. An empty name
// yields an anonymous provider.
func NewStatic(id, name, email string) *Static {
	if name == "" {
		return &Static{}
	}
	return &Static{identity: &Identity{ID: id, Name: name, Email: email}}
}

// Current returns the configured identity, or nil when anonymous.
func (s *Static) Current(ctx context.Context) *Identity {
	return s.identity
}
