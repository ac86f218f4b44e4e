package mock

import (
	"github.com/bobinette/sketchnet/oauth"
)

// OAuthClient replaces a real provider in tests: it hands back a canned
// identity instead of exchanging a code.
type OAuthClient struct {
	Identity oauth.Identity
	Err      error
}

func (c *OAuthClient) LoginURL() string {
	return "https://provider.test/consent?state=xyz"
}

func (c *OAuthClient) Exchange(state, code string) (oauth.Identity, error) {
	if c.Err != nil {
		return oauth.Identity{}, c.Err
	}
	return c.Identity, nil
}
