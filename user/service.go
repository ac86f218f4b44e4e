// Package user is the account service: registration, local and
// federated login, profile reads and updates.
package user

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/oauth"
)

// Summary is the user representation sent back to clients. It never
// carries the password hash nor the salt.
type Summary struct {
	ID        int                `json:"id"`
	Username  string             `json:"username,omitempty"`
	Email     string             `json:"email"`
	Provider  sketchnet.Provider `json:"authProvider"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type UpdateParams struct {
	Username    string `json:"username"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type Service struct {
	users   sketchnet.UserStore
	encoder *jwt.EncodeDecoder
}

func NewService(users sketchnet.UserStore, encoder *jwt.EncodeDecoder) *Service {
	return &Service{
		users:   users,
		encoder: encoder,
	}
}

// Register creates a local account. The same email may already be in
// use by a federated account, that is fine: only a second local account
// is a conflict.
func (s *Service) Register(username, email, password string) (*Summary, error) {
	existing, err := s.users.GetByEmail(sketchnet.ProviderLocal, email)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving user %s", email), errors.WithCause(err))
	} else if existing != nil {
		return nil, errors.New(
			fmt.Sprintf("%s is already registered", email),
			errors.Conflict(),
			errors.WithDetail("email", "already registered"),
		)
	}

	salt := randToken(64)
	hash, err := hashPassword(password, salt)
	if err != nil {
		return nil, errors.New("error hashing password", errors.WithCause(err))
	}

	user := &sketchnet.User{
		Name:         username,
		Email:        email,
		Provider:     sketchnet.ProviderLocal,
		Salt:         salt,
		PasswordHash: hash,
	}
	if err := s.users.Upsert(user); err != nil {
		if errors.Code(err) < 500 {
			return nil, err
		}
		return nil, errors.New("error saving user", errors.WithCause(err))
	}

	summary := summarize(user)
	return &summary, nil
}

// Login verifies a local account's password and issues a session token.
// A wrong password and an unknown email yield the same error: login
// never reveals whether an email is registered.
func (s *Service) Login(email, password string) (string, *Summary, error) {
	user, err := s.users.GetByEmail(sketchnet.ProviderLocal, email)
	if err != nil {
		return "", nil, errors.New(fmt.Sprintf("error retrieving user %s", email), errors.WithCause(err))
	}

	if user == nil || !verifyPassword(user, password) {
		return "", nil, errInvalidCredentials()
	}

	return s.session(user)
}

// LoginFederated logs in, or registers on first sight, a user asserted
// by an external provider.
func (s *Service) LoginFederated(identity oauth.Identity) (string, *Summary, error) {
	if !identity.Provider.Federated() {
		return "", nil, errors.New(
			fmt.Sprintf("unknown provider %q", identity.Provider),
			errors.BadRequest(),
			errors.WithDetail("provider", "must be google or github"),
		)
	}

	user, err := s.users.GetByProviderID(identity.Provider, identity.UserID)
	if err != nil {
		return "", nil, errors.New("error retrieving user", errors.WithCause(err))
	}

	if user == nil {
		email := identity.Email
		if email == "" {
			// The provider did not share an address. Synthesize one so
			// the (email, provider) pair stays unique.
			email = fmt.Sprintf("%s@%s.sketchnet.local", identity.UserID, identity.Provider)
		}
		user = &sketchnet.User{
			Name:           identity.Name,
			Email:          email,
			Provider:       identity.Provider,
			ProviderUserID: identity.UserID,
		}
		if err := s.users.Upsert(user); err != nil {
			return "", nil, errors.New("error saving user", errors.WithCause(err))
		}
	} else if user.Name == "" && identity.Name != "" {
		user.Name = identity.Name
		if err := s.users.Upsert(user); err != nil {
			return "", nil, errors.New("error saving user", errors.WithCause(err))
		}
	}

	return s.session(user)
}

// Profile returns the user's own profile. The username is only exposed
// for local accounts.
func (s *Service) Profile(userID int) (*Summary, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving user %d", userID), errors.WithCause(err))
	} else if user == nil {
		return nil, errUserNotFound(userID)
	}

	summary := summarize(user)
	return &summary, nil
}

// UpdateProfile updates the username and, when both the old and the new
// password are given, rotates the password. Only local accounts have
// anything to update.
func (s *Service) UpdateProfile(userID int, params UpdateParams) (*Summary, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving user %d", userID), errors.WithCause(err))
	} else if user == nil || user.Provider != sketchnet.ProviderLocal {
		return nil, errUserNotFound(userID)
	}

	if params.OldPassword != "" && params.NewPassword != "" {
		if !verifyPassword(user, params.OldPassword) {
			return nil, errors.New("password incorrect", errors.Unauthorized())
		}

		salt := randToken(64)
		hash, err := hashPassword(params.NewPassword, salt)
		if err != nil {
			return nil, errors.New("error hashing password", errors.WithCause(err))
		}
		user.Salt = salt
		user.PasswordHash = hash
	}

	if params.Username != "" && params.Username != user.Name {
		user.Name = params.Username
	}

	if err := s.users.Upsert(user); err != nil {
		return nil, errors.New("error saving user", errors.WithCause(err))
	}

	summary := summarize(user)
	return &summary, nil
}

func (s *Service) session(user *sketchnet.User) (string, *Summary, error) {
	token, err := s.encoder.Encode(user)
	if err != nil {
		return "", nil, errors.New("error signing token", errors.WithCause(err))
	}

	summary := summarize(user)
	return token, &summary, nil
}

func summarize(user *sketchnet.User) Summary {
	summary := Summary{
		ID:        user.ID,
		Email:     user.Email,
		Provider:  user.Provider,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.Provider == sketchnet.ProviderLocal {
		summary.Username = user.Name
	}
	return summary
}

func hashPassword(password, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(user *sketchnet.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password+user.Salt))
	return err == nil
}

func errInvalidCredentials() error {
	return errors.New("email or password incorrect", errors.Unauthorized())
}

func errUserNotFound(id int) error {
	return errors.New(fmt.Sprintf("<User %d> not found", id), errors.NotFound())
}

func randToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
