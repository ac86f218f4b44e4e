package gin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/access"
	"github.com/bobinette/sketchnet/board"
	"github.com/bobinette/sketchnet/errors"
)

type BoardHandler struct {
	Service       *board.Service
	Access        *access.Service
	Authenticator *Authenticator
	Formatter     Formatter
}

func (h *BoardHandler) RegisterRoutes(router *gin.Engine) {
	auth := h.Authenticator.Authenticate

	router.GET("/boards", h.Formatter.Wrap(auth(h.List)))
	router.POST("/boards", h.Formatter.WrapCode(http.StatusCreated, auth(h.Create)))
	router.GET("/boards/search", h.Formatter.Wrap(auth(h.Search)))
	router.GET("/boards/:id", h.Formatter.Wrap(auth(h.Get)))
	router.DELETE("/boards/:id", h.Formatter.Wrap(auth(h.Delete)))
	router.POST("/boards/:id/collaborators", h.Formatter.WrapCode(http.StatusCreated, auth(h.AddCollaborator)))
	router.DELETE("/boards/:id/collaborators", h.Formatter.Wrap(auth(h.RemoveCollaborator)))
}

func (h *BoardHandler) List(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	summaries, err := h.Service.List(user.ID)
	if err != nil {
		return nil, err
	}

	return gin.H{"boards": summaries}, nil
}

func (h *BoardHandler) Create(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	var params board.CreateParams
	if err := bindJSON(c, &params); err != nil {
		return nil, err
	}

	return h.Service.Create(user.ID, params)
}

func (h *BoardHandler) Search(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	name, ok := c.GetQuery("name")
	if !ok {
		return nil, errors.New(
			"missing search term",
			errors.BadRequest(),
			errors.WithDetail("name", "is required"),
		)
	}

	summaries, err := h.Service.Search(user.ID, name)
	if err != nil {
		return nil, err
	}

	return gin.H{"boards": summaries}, nil
}

func (h *BoardHandler) Get(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	boardID, err := parseID(c)
	if err != nil {
		return nil, err
	}

	return h.Service.Get(boardID, user.ID)
}

func (h *BoardHandler) Delete(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	boardID, err := parseID(c)
	if err != nil {
		return nil, err
	}

	if err := h.Service.Delete(boardID, user.ID); err != nil {
		return nil, err
	}
	return gin.H{"data": "ok"}, nil
}

func (h *BoardHandler) AddCollaborator(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	boardID, err := parseID(c)
	if err != nil {
		return nil, err
	}

	var payload struct {
		UserID     int                  `json:"userId"`
		Permission sketchnet.Permission `json:"permission"`
	}
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	updated, err := h.Access.AddCollaborator(boardID, user.ID, payload.UserID, payload.Permission)
	if err != nil {
		return nil, err
	}

	return gin.H{"collaborators": updated.Collaborators}, nil
}

func (h *BoardHandler) RemoveCollaborator(c *gin.Context) (interface{}, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	boardID, err := parseID(c)
	if err != nil {
		return nil, err
	}

	var payload struct {
		UserID int `json:"userId"`
	}
	if err := bindJSON(c, &payload); err != nil {
		return nil, err
	}

	updated, err := h.Access.RemoveCollaborator(boardID, user.ID, payload.UserID)
	if err != nil {
		return nil, err
	}

	return gin.H{"collaborators": updated.Collaborators}, nil
}

func parseID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errors.New(
			"invalid board id",
			errors.BadRequest(),
			errors.WithDetail("id", "must be an integer"),
		)
	}
	return id, nil
}
