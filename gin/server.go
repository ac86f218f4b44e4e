package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/access"
	"github.com/bobinette/sketchnet/board"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/log"
	"github.com/bobinette/sketchnet/oauth"
	"github.com/bobinette/sketchnet/user"
)

func New(
	users sketchnet.UserStore,
	boards sketchnet.BoardStore,
	index sketchnet.BoardIndex,
	encoder *jwt.EncodeDecoder,
	google oauth.Client,
	github oauth.Client,
	logger log.Logger,
) http.Handler {
	router := gin.Default()

	// CORS. Credentials are allowed because the session lives in a
	// cookie.
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"title":   http.StatusText(http.StatusNotFound),
			"message": "Page not found",
		})
	})

	// Ping
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})

	formatter := Formatter{Logger: logger}
	authenticator := &Authenticator{Encoder: encoder, Users: users}

	accessService := access.NewService(boards, users)

	userHandler := UserHandler{
		Service:       user.NewService(users, encoder),
		Google:        google,
		GitHub:        github,
		Authenticator: authenticator,
		Formatter:     formatter,
	}
	userHandler.RegisterRoutes(router)

	boardHandler := BoardHandler{
		Service:       board.NewService(boards, index, users, accessService),
		Access:        accessService,
		Authenticator: authenticator,
		Formatter:     formatter,
	}
	boardHandler.RegisterRoutes(router)

	return router
}
