package gin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/oauth"
	"github.com/bobinette/sketchnet/user"
)

type UserHandler struct {
	Service       *user.Service
	Google        oauth.Client
	GitHub        oauth.Client
	Authenticator *Authenticator
	Formatter     Formatter
}

func (h *UserHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/users", h.Formatter.WrapCode(http.StatusCreated, h.Register))
	router.POST("/sessions", h.Formatter.Wrap(h.Login))
	router.POST("/sessions/federated", h.Formatter.Wrap(h.LoginFederated))
	router.GET("/sessions/federated/url", h.Formatter.Wrap(h.LoginURL))
	router.DELETE("/sessions", h.Formatter.Wrap(h.Authenticator.Authenticate(h.Logout)))
	router.GET("/profile", h.Formatter.Wrap(h.Authenticator.Authenticate(h.Profile)))
	router.PUT("/profile", h.Formatter.Wrap(h.Authenticator.Authenticate(h.UpdateProfile)))
}

func (h *UserHandler) Register(c *gin.Context) (interface{}, error) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	err := errors.New("invalid registration", errors.BadRequest())
	invalid := false
	if strings.TrimSpace(payload.Email) == "" {
		err = errors.WithDetail("email", "cannot be blank")(err)
		invalid = true
	}
	if payload.Password == "" {
		err = errors.WithDetail("password", "cannot be blank")(err)
		invalid = true
	}
	if invalid {
		return nil, err
	}

	return h.Service.Register(payload.Username, payload.Email, payload.Password)
}

func (h *UserHandler) Login(c *gin.Context) (interface{}, error) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	token, summary, err := h.Service.Login(payload.Email, payload.Password)
	if err != nil {
		return nil, err
	}

	setSessionCookie(c, token)
	return gin.H{"user": summary}, nil
}

func (h *UserHandler) LoginURL(c *gin.Context) (interface{}, error) {
	client, err := h.client(c.Query("provider"))
	if err != nil {
		return nil, err
	}

	return gin.H{"url": client.LoginURL()}, nil
}

func (h *UserHandler) LoginFederated(c *gin.Context) (interface{}, error) {
	var payload struct {
		Provider string `json:"provider"`
		State    string `json:"state"`
		Code     string `json:"code"`
	}
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	client, err := h.client(payload.Provider)
	if err != nil {
		return nil, err
	}

	identity, err := client.Exchange(payload.State, payload.Code)
	if err != nil {
		return nil, err
	}

	token, summary, err := h.Service.LoginFederated(identity)
	if err != nil {
		return nil, err
	}

	setSessionCookie(c, token)
	return gin.H{"user": summary}, nil
}

func (h *UserHandler) Logout(c *gin.Context) (interface{}, error) {
	clearSessionCookie(c)
	return gin.H{"data": "ok"}, nil
}

func (h *UserHandler) Profile(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	return h.Service.Profile(user.ID)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) (interface{}, error) {
	u, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	var payload user.UpdateParams
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	// Both passwords or none.
	if (payload.OldPassword == "") != (payload.NewPassword == "") {
		return nil, errors.New(
			"oldPassword and newPassword go together",
			errors.BadRequest(),
			errors.WithDetail("oldPassword", "must be given with newPassword"),
		)
	}

	return h.Service.UpdateProfile(u.ID, payload)
}

func (h *UserHandler) client(provider string) (oauth.Client, error) {
	switch sketchnet.Provider(provider) {
	case sketchnet.ProviderGoogle:
		return h.Google, nil
	case sketchnet.ProviderGitHub:
		return h.GitHub, nil
	}
	return nil, errors.New(
		"unknown provider",
		errors.BadRequest(),
		errors.WithDetail("provider", "must be google or github"),
	)
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, int(jwt.TokenDuration.Seconds()), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
