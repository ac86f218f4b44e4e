package gin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/access"
	"github.com/bobinette/sketchnet/board"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/log"
	"github.com/bobinette/sketchnet/mock"
	"github.com/bobinette/sketchnet/oauth"
	"github.com/bobinette/sketchnet/user"
)

type fixtures struct {
	users  *mock.UserStore
	boards *mock.BoardStore
	google *mock.OAuthClient
	github *mock.OAuthClient
}

func createRouter(t *testing.T) (*gin.Engine, *fixtures) {
	f := &fixtures{
		users:  &mock.UserStore{},
		boards: &mock.BoardStore{},
		google: &mock.OAuthClient{},
		github: &mock.OAuthClient{},
	}
	index := &mock.BoardIndex{}

	encoder := jwt.NewEncodeDecoder([]byte("test key"))
	formatter := Formatter{Logger: log.New("test")}
	authenticator := &Authenticator{Encoder: encoder, Users: f.users}
	accessService := access.NewService(f.boards, f.users)

	gin.SetMode(gin.ReleaseMode) // avoid unnecessary log
	router := gin.New()

	userHandler := UserHandler{
		Service:       user.NewService(f.users, encoder),
		Google:        f.google,
		GitHub:        f.github,
		Authenticator: authenticator,
		Formatter:     formatter,
	}
	userHandler.RegisterRoutes(router)

	boardHandler := BoardHandler{
		Service:       board.NewService(f.boards, index, f.users, accessService),
		Access:        accessService,
		Authenticator: authenticator,
		Formatter:     formatter,
	}
	boardHandler.RegisterRoutes(router)

	return router, f
}

func createReader(i interface{}, t *testing.T) io.Reader {
	data, err := json.Marshal(i)
	if err != nil {
		t.Fatal("cannot marshal:", err)
	}
	return bytes.NewReader(data)
}

func register(t *testing.T, router *gin.Engine, username, email, password string) {
	body := createReader(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, t)
	req := httptest.NewRequest("POST", "/users", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("could not register %s: %d (%s)", email, resp.Code, resp.Body.String())
	}
}

func login(t *testing.T, router *gin.Engine, email, password string) *http.Cookie {
	body := createReader(map[string]string{"email": email, "password": password}, t)
	req := httptest.NewRequest("POST", "/sessions", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("could not log %s in: %d (%s)", email, resp.Code, resp.Body.String())
	}

	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie in the login response")
	return nil
}

func TestRegister(t *testing.T) {
	router, _ := createRouter(t)

	var tts = []struct {
		Name    string
		Payload map[string]string
		Code    int
	}{
		{
			Name:    "valid",
			Payload: map[string]string{"username": "ada", "email": "ada@test.io", "password": "s3cret"},
			Code:    201,
		},
		{
			Name:    "duplicate email",
			Payload: map[string]string{"username": "ada2", "email": "ada@test.io", "password": "s3cret"},
			Code:    409,
		},
		{
			Name:    "blank email",
			Payload: map[string]string{"username": "x", "email": "  ", "password": "s3cret"},
			Code:    400,
		},
		{
			Name:    "blank password",
			Payload: map[string]string{"username": "x", "email": "x@test.io", "password": ""},
			Code:    400,
		},
		{
			Name:    "unknown field",
			Payload: map[string]string{"email": "y@test.io", "password": "s3cret", "admin": "true"},
			Code:    400,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("POST", "/users", createReader(tt.Payload, t))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (%s)", tt.Name, tt.Code, resp.Code, resp.Body.String())
		}

		if tt.Code == 201 {
			var r map[string]interface{}
			if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
				t.Fatal("could not decode response as JSON:", err)
			}
			if _, ok := r["password"]; ok {
				t.Error("the response should never carry a password")
			}
			if _, ok := r["salt"]; ok {
				t.Error("the response should never carry a salt")
			}
		}
	}
}

func TestLogin(t *testing.T) {
	router, _ := createRouter(t)
	register(t, router, "ada", "ada@test.io", "s3cret")

	cookie := login(t, router, "ada@test.io", "s3cret")
	if !cookie.HttpOnly {
		t.Error("the session cookie should be http-only")
	}

	// The cookie opens authenticated routes.
	req := httptest.NewRequest("GET", "/profile", nil)
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Errorf("incorrect code: expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	// Wrong password.
	body := createReader(map[string]string{"email": "ada@test.io", "password": "wrong"}, t)
	req = httptest.NewRequest("POST", "/sessions", body)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("incorrect code: expected 401 got %d", resp.Code)
	}
}

func TestLogout(t *testing.T) {
	router, _ := createRouter(t)
	register(t, router, "ada", "ada@test.io", "s3cret")
	cookie := login(t, router, "ada@test.io", "s3cret")

	// Logout needs a session.
	req := httptest.NewRequest("DELETE", "/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("incorrect code: expected 401 got %d", resp.Code)
	}

	req = httptest.NewRequest("DELETE", "/sessions", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect code: expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	cleared := false
	for _, c := range resp.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should clear the session cookie")
	}
}

func TestProfile(t *testing.T) {
	router, _ := createRouter(t)
	register(t, router, "ada", "ada@test.io", "s3cret")
	cookie := login(t, router, "ada@test.io", "s3cret")

	// No session.
	req := httptest.NewRequest("GET", "/profile", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("incorrect code: expected 401 got %d", resp.Code)
	}

	req = httptest.NewRequest("GET", "/profile", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect code: expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	var profile struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Provider string `json:"authProvider"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatal("could not decode response as JSON:", err)
	}
	if profile.Username != "ada" || profile.Email != "ada@test.io" || profile.Provider != "local" {
		t.Errorf("incorrect profile: %+v", profile)
	}
}

func TestUpdateProfile(t *testing.T) {
	router, _ := createRouter(t)
	register(t, router, "ada", "ada@test.io", "s3cret")
	cookie := login(t, router, "ada@test.io", "s3cret")

	var tts = []struct {
		Name    string
		Payload map[string]string
		Code    int
	}{
		{
			Name:    "username only",
			Payload: map[string]string{"username": "lovelace"},
			Code:    200,
		},
		{
			Name:    "old password alone",
			Payload: map[string]string{"oldPassword": "s3cret"},
			Code:    400,
		},
		{
			Name:    "new password alone",
			Payload: map[string]string{"newPassword": "n3w"},
			Code:    400,
		},
		{
			Name:    "wrong old password",
			Payload: map[string]string{"oldPassword": "wrong", "newPassword": "n3w"},
			Code:    401,
		},
		{
			Name:    "password change",
			Payload: map[string]string{"oldPassword": "s3cret", "newPassword": "n3w"},
			Code:    200,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("PUT", "/profile", createReader(tt.Payload, t))
		req.AddCookie(cookie)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (%s)", tt.Name, tt.Code, resp.Code, resp.Body.String())
		}
	}

	// The old password does not work anymore.
	body := createReader(map[string]string{"email": "ada@test.io", "password": "s3cret"}, t)
	req := httptest.NewRequest("POST", "/sessions", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("incorrect code: expected 401 got %d", resp.Code)
	}
	login(t, router, "ada@test.io", "n3w")
}

func TestLoginFederated(t *testing.T) {
	router, f := createRouter(t)
	f.github.Identity = oauth.Identity{
		Provider: sketchnet.ProviderGitHub,
		UserID:   "gh-42",
		Email:    "ada@test.io",
		Name:     "Ada",
	}

	body := createReader(map[string]string{"provider": "github", "state": "xyz", "code": "abc"}, t)
	req := httptest.NewRequest("POST", "/sessions/federated", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect code: expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == CookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie in the login response")
	}

	// The account was created.
	user, err := f.users.GetByProviderID(sketchnet.ProviderGitHub, "gh-42")
	if err != nil || user == nil {
		t.Fatalf("the federated user should exist: %v %v", user, err)
	}

	// Unknown provider.
	body = createReader(map[string]string{"provider": "gitlab", "state": "xyz", "code": "abc"}, t)
	req = httptest.NewRequest("POST", "/sessions/federated", body)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("incorrect code: expected 400 got %d", resp.Code)
	}
}

func TestLoginURL(t *testing.T) {
	router, _ := createRouter(t)

	var tts = []struct {
		Query string
		Code  int
	}{
		{Query: "/sessions/federated/url?provider=google", Code: 200},
		{Query: "/sessions/federated/url?provider=github", Code: 200},
		{Query: "/sessions/federated/url?provider=local", Code: 400},
		{Query: "/sessions/federated/url", Code: 400},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("GET", tt.Query, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d", tt.Query, tt.Code, resp.Code)
		}

		if tt.Code != 200 {
			continue
		}
		var r struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
			t.Error("could not decode response as JSON:", err)
		} else if r.URL == "" {
			t.Errorf("%s - expected a consent URL", tt.Query)
		}
	}
}
