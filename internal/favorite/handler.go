package favorite

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func respondError(c *gin.Context, err error) {
	if code := guard.CodeOf(err); code != "" {
		c.JSON(guard.HTTPStatus(err), gin.H{"error": err.Error(), "code": code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// Toggle - POST /intents/:id/favorite
func (h *Handler) Toggle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	favorited, err2 := h.Service.Toggle(c.Request.Context(), actor, uint(id))
	if err2 != nil {
		respondError(c, err2)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

// ListOwn - GET /me/favorites
func (h *Handler) ListOwn(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	intents, err := h.Service.ListOwn(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intents": intents})
}
