package oauth

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

var googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type GoogleClient struct {
	config oauth2.Config

	stateMutex sync.Locker
	state      map[string]struct{}
}

func NewGoogleClient(creds Credentials) *GoogleClient {
	return &GoogleClient{
		config: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},

		stateMutex: &sync.RWMutex{},
		state:      make(map[string]struct{}),
	}
}

func (c *GoogleClient) LoginURL() string {
	state := randToken(32)
	c.stateMutex.Lock()
	c.state[state] = struct{}{}
	c.stateMutex.Unlock()

	return c.config.AuthCodeURL(state)
}

func (c *GoogleClient) Exchange(state, code string) (Identity, error) {
	c.stateMutex.Lock()
	_, ok := c.state[state]
	c.stateMutex.Unlock() // no defer because the token exchange could be long

	if !ok {
		return Identity{}, errors.New("invalid state", errors.BadRequest())
	}

	c.stateMutex.Lock()
	delete(c.state, state)
	c.stateMutex.Unlock()

	tok, err := c.config.Exchange(context.Background(), code)
	if err != nil {
		return Identity{}, errors.New("could not verify identity with google", errors.Unauthorized(), errors.WithCause(err))
	}

	return c.userInfo(tok)
}

func (c *GoogleClient) userInfo(tok *oauth2.Token) (Identity, error) {
	client := c.config.Client(context.Background(), tok)
	res, err := client.Get(googleUserInfoURL)
	if err != nil {
		return Identity{}, errors.New("could not retrieve google user info", errors.WithCause(err))
	}
	defer res.Body.Close()

	var user struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return Identity{}, errors.New("could not decode google user info", errors.WithCause(err))
	}

	return Identity{
		Provider: sketchnet.ProviderGoogle,
		UserID:   user.Sub,
		Email:    user.Email,
		Name:     user.Name,
	}, nil
}
