package user

import (
	"net/http"
	"testing"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/mock"
	"github.com/bobinette/sketchnet/oauth"
)

func createService(t *testing.T) (*Service, *mock.UserStore) {
	users := &mock.UserStore{}
	return NewService(users, jwt.NewEncodeDecoder([]byte("test key"))), users
}

func TestRegister(t *testing.T) {
	service, _ := createService(t)

	summary, err := service.Register("ada", "ada@test.io", "s3cret")
	if err != nil {
		t.Fatal("error registering:", err)
	}

	if summary.Username != "ada" || summary.Email != "ada@test.io" {
		t.Errorf("incorrect summary: %+v", summary)
	}
	if summary.Provider != sketchnet.ProviderLocal {
		t.Errorf("incorrect provider: expected local got %s", summary.Provider)
	}

	// Same email, local again: conflict.
	_, err = service.Register("ada2", "ada@test.io", "s3cret")
	errors.AssertCode(t, err, http.StatusConflict)

	// A federated account with the same email is unaffected.
	_, _, err = service.LoginFederated(oauth.Identity{
		Provider: sketchnet.ProviderGoogle,
		UserID:   "g-1",
		Email:    "ada@test.io",
	})
	if err != nil {
		t.Error("federated login with the same email should work, got:", err)
	}
}

func TestLogin(t *testing.T) {
	service, _ := createService(t)

	if _, err := service.Register("ada", "ada@test.io", "s3cret"); err != nil {
		t.Fatal("error registering:", err)
	}

	token, summary, err := service.Login("ada@test.io", "s3cret")
	if err != nil {
		t.Fatal("error logging in:", err)
	}
	if token == "" {
		t.Error("login should issue a token")
	}
	if summary.Username != "ada" {
		t.Errorf("incorrect username: expected ada got %s", summary.Username)
	}

	// Wrong password and unknown email yield the same error.
	_, _, err = service.Login("ada@test.io", "wrong")
	errors.AssertCode(t, err, http.StatusUnauthorized)
	wrongPassword := err.Error()

	_, _, err = service.Login("nobody@test.io", "s3cret")
	errors.AssertCode(t, err, http.StatusUnauthorized)
	if err.Error() != wrongPassword {
		t.Errorf("login should not reveal whether the email exists: %q vs %q", err.Error(), wrongPassword)
	}
}

func TestLoginFederated(t *testing.T) {
	service, users := createService(t)

	identity := oauth.Identity{
		Provider: sketchnet.ProviderGitHub,
		UserID:   "gh-42",
		Email:    "ada@test.io",
		Name:     "Ada",
	}

	// First login creates the account.
	token, summary, err := service.LoginFederated(identity)
	if err != nil {
		t.Fatal("error logging in:", err)
	}
	if token == "" {
		t.Error("login should issue a token")
	}
	if summary.Username != "" {
		t.Errorf("federated summary should not expose a username, got %q", summary.Username)
	}

	// Second login finds it again.
	_, again, err := service.LoginFederated(identity)
	if err != nil {
		t.Fatal("error logging in again:", err)
	}
	if again.ID != summary.ID {
		t.Errorf("expected the same user, got %d and %d", summary.ID, again.ID)
	}

	// A missing display name is backfilled on a later login.
	user, _ := users.GetByProviderID(sketchnet.ProviderGitHub, "gh-42")
	user.Name = ""
	if err := users.Upsert(user); err != nil {
		t.Fatal("error resetting name:", err)
	}
	if _, _, err := service.LoginFederated(identity); err != nil {
		t.Fatal("error logging in:", err)
	}
	user, _ = users.GetByProviderID(sketchnet.ProviderGitHub, "gh-42")
	if user.Name != "Ada" {
		t.Errorf("name should have been backfilled, got %q", user.Name)
	}
}

func TestLoginFederated_Errors(t *testing.T) {
	service, _ := createService(t)

	for _, provider := range []sketchnet.Provider{"local", "gitlab", ""} {
		_, _, err := service.LoginFederated(oauth.Identity{Provider: provider, UserID: "x"})
		errors.AssertCode(t, err, http.StatusBadRequest)
	}
}

func TestLoginFederated_NoEmail(t *testing.T) {
	service, users := createService(t)

	_, summary, err := service.LoginFederated(oauth.Identity{
		Provider: sketchnet.ProviderGitHub,
		UserID:   "gh-7",
	})
	if err != nil {
		t.Fatal("error logging in:", err)
	}
	if summary.Email == "" {
		t.Error("a placeholder email should have been synthesized")
	}

	user, _ := users.GetByProviderID(sketchnet.ProviderGitHub, "gh-7")
	if user.Email != summary.Email {
		t.Errorf("incorrect stored email: %q vs %q", user.Email, summary.Email)
	}
}

func TestProfile(t *testing.T) {
	service, _ := createService(t)

	registered, err := service.Register("ada", "ada@test.io", "s3cret")
	if err != nil {
		t.Fatal("error registering:", err)
	}

	summary, err := service.Profile(registered.ID)
	if err != nil {
		t.Fatal("error retrieving profile:", err)
	}
	if summary.Username != "ada" || summary.Email != "ada@test.io" {
		t.Errorf("incorrect profile: %+v", summary)
	}

	_, err = service.Profile(42)
	errors.AssertCode(t, err, http.StatusNotFound)
}

func TestUpdateProfile(t *testing.T) {
	service, _ := createService(t)

	registered, err := service.Register("ada", "ada@test.io", "s3cret")
	if err != nil {
		t.Fatal("error registering:", err)
	}

	// Username only.
	summary, err := service.UpdateProfile(registered.ID, UpdateParams{Username: "lovelace"})
	if err != nil {
		t.Fatal("error updating profile:", err)
	}
	if summary.Username != "lovelace" {
		t.Errorf("incorrect username: expected lovelace got %s", summary.Username)
	}

	// Password change requires the old one to verify.
	_, err = service.UpdateProfile(registered.ID, UpdateParams{OldPassword: "wrong", NewPassword: "n3w"})
	errors.AssertCode(t, err, http.StatusUnauthorized)

	if _, err := service.UpdateProfile(registered.ID, UpdateParams{OldPassword: "s3cret", NewPassword: "n3w"}); err != nil {
		t.Fatal("error changing password:", err)
	}

	if _, _, err := service.Login("ada@test.io", "n3w"); err != nil {
		t.Error("login with the new password should work, got:", err)
	}
	_, _, err = service.Login("ada@test.io", "s3cret")
	errors.AssertCode(t, err, http.StatusUnauthorized)

	// Unknown user.
	_, err = service.UpdateProfile(42, UpdateParams{Username: "ghost"})
	errors.AssertCode(t, err, http.StatusNotFound)
}

func TestUpdateProfile_Federated(t *testing.T) {
	service, _ := createService(t)

	_, summary, err := service.LoginFederated(oauth.Identity{
		Provider: sketchnet.ProviderGoogle,
		UserID:   "g-1",
		Email:    "ada@test.io",
	})
	if err != nil {
		t.Fatal("error logging in:", err)
	}

	// Federated accounts have no local profile to update.
	_, err = service.UpdateProfile(summary.ID, UpdateParams{Username: "ada"})
	errors.AssertCode(t, err, http.StatusNotFound)
}
