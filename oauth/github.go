package oauth

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

var githubUserURL = "https://api.github.com/user"

type GitHubClient struct {
	config oauth2.Config

	stateMutex sync.Locker
	state      map[string]struct{}
}

func NewGitHubClient(creds Credentials) *GitHubClient {
	return &GitHubClient{
		config: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},

		stateMutex: &sync.RWMutex{},
		state:      make(map[string]struct{}),
	}
}

func (c *GitHubClient) LoginURL() string {
	state := randToken(32)
	c.stateMutex.Lock()
	c.state[state] = struct{}{}
	c.stateMutex.Unlock()

	return c.config.AuthCodeURL(state)
}

func (c *GitHubClient) Exchange(state, code string) (Identity, error) {
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
		return Identity{}, errors.New("could not verify identity with github", errors.Unauthorized(), errors.WithCause(err))
	}

	return c.userInfo(tok)
}

func (c *GitHubClient) userInfo(tok *oauth2.Token) (Identity, error) {
	client := c.config.Client(context.Background(), tok)
	res, err := client.Get(githubUserURL)
	if err != nil {
		return Identity{}, errors.New("could not retrieve github user info", errors.WithCause(err))
	}
	defer res.Body.Close()

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		// Empty when the user keeps their address private. The account
		// service synthesizes a placeholder in that case.
		Email string `json:"email"`
	}
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return Identity{}, errors.New("could not decode github user info", errors.WithCause(err))
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return Identity{
		Provider: sketchnet.ProviderGitHub,
		UserID:   strconv.FormatInt(user.ID, 10),
		Email:    user.Email,
		Name:     name,
	}, nil
}
