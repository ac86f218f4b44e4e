// Package oauth holds the federated identity clients. Each client hands
// out a consent URL and exchanges the provider's authorization code for
// an Identity the account service can log in.
package oauth

import (
	"encoding/base64"
	"math/rand"

	"github.com/bobinette/sketchnet"
)

// Identity is what a provider asserts about a user once the
// authorization code has been exchanged.
type Identity struct {
	Provider sketchnet.Provider
	UserID   string
	Email    string
	Name     string
}

type Client interface {
	// LoginURL returns the provider consent page URL, carrying a
	// freshly minted state.
	LoginURL() string

	// Exchange validates the state, trades the code for a token and
	// fetches the user info.
	Exchange(state, code string) (Identity, error)
}

// Credentials of an OAuth application, loaded from the configuration.
type Credentials struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

func randToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
