// Package gin is the HTTP boundary. Handlers return a payload and an
// error; the formatter turns them into JSON responses and maps error
// codes to status codes. Sessions travel in the token cookie.
package gin

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/log"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

type HandlerFunc func(*gin.Context) (interface{}, error)

type Formatter struct {
	Logger log.Logger
}

// Wrap renders the handler's payload with a 200, or its error with the
// carried code. Internal errors are logged in full and only their
// message reaches the client.
func (f Formatter) Wrap(next HandlerFunc) gin.HandlerFunc {
	return f.WrapCode(http.StatusOK, next)
}

// WrapCode is Wrap with a custom success status, for the endpoints that
// create resources.
func (f Formatter) WrapCode(success int, next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := next(c)
		if err != nil {
			f.renderError(c, err)
			return
		}

		c.JSON(success, res)
	}
}

func (f Formatter) renderError(c *gin.Context, err error) {
	code := errors.Code(err)
	message := err.Error()
	var details []errors.Detail
	if err, ok := err.(errors.Error); ok {
		details = err.Details()
		if code >= http.StatusInternalServerError {
			// Keep the cause for the logs, not for the client.
			f.Logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			message = err.Message()
		}
	} else if code >= http.StatusInternalServerError {
		f.Logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	body := gin.H{
		"title":   http.StatusText(code),
		"message": message,
	}
	if len(details) > 0 {
		body["errors"] = details
	}
	c.JSON(code, body)
}

type Authenticator struct {
	Encoder *jwt.EncodeDecoder
	Users   sketchnet.UserStore
}

// Authenticate reads the session cookie, resolves the user and makes it
// available to the wrapped handler.
func (a *Authenticator) Authenticate(next HandlerFunc) HandlerFunc {
	return func(c *gin.Context) (interface{}, error) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			return nil, errors.New("no token found", errors.Unauthorized())
		}

		claims, err := a.Encoder.Decode(token)
		if err != nil {
			return nil, err
		}

		user, err := a.Users.Get(claims.UserID)
		if err != nil {
			return nil, errors.New("could not get user", errors.WithCause(err))
		} else if user == nil {
			return nil, errors.New("unknown user", errors.Unauthorized())
		}

		c.Set("user", user)
		return next(c)
	}
}

func currentUser(c *gin.Context) (*sketchnet.User, error) {
	u, ok := c.Get("user")
	if !ok {
		return nil, errors.New("could not extract user")
	}

	user, ok := u.(*sketchnet.User)
	if !ok {
		return nil, errors.New("could not extract user")
	}

	return user, nil
}

// bindJSON decodes the request body, rejecting unknown fields.
func bindJSON(c *gin.Context, dest interface{}) error {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return errors.New("invalid body", errors.BadRequest(), errors.WithCause(err))
	}
	return nil
}
