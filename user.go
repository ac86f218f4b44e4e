package sketchnet

import (
	"time"
)

// Provider identifies how a user authenticates. A given email can exist
// once per provider: the same address may back a local account and a
// Google account at the same time, they are distinct users.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

func (p Provider) Valid() bool {
	return p == ProviderLocal || p == ProviderGoogle || p == ProviderGitHub
}

// Federated returns true for providers backed by an external identity
// provider, i.e. everything but local password accounts.
func (p Provider) Federated() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

type User struct {
	ID       int      `json:"id"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email"`
	Provider Provider `json:"authProvider"`

	// Local accounts only. The hash is bcrypt over password+salt.
	Salt         string `json:"salt,omitempty"`
	PasswordHash string `json:"password,omitempty"`

	// Federated accounts only: the stable id on the external provider.
	ProviderUserID string `json:"providerUserID,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserStore interface {
	// Get retrieves a user by id. If no user can be found with the given
	// id, Get returns nil.
	Get(int) (*User, error)

	// GetByEmail retrieves the user registered with the given email under
	// the given provider, or nil.
	GetByEmail(Provider, string) (*User, error)

	// GetByProviderID retrieves the user linked to the given external
	// provider id, or nil.
	GetByProviderID(Provider, string) (*User, error)

	Upsert(*User) error
}
