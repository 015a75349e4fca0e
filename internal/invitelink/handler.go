package invitelink

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

// CreateLink - POST /intents/:id/invite-links
func (h *Handler) CreateLink(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	var req CreateInviteLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	link, err := h.Service.CreateLink(c.Request.Context(), actor, uint(intentID), &req, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invite_link": link, "share_url": ShareURL(link.Token)})
}

// ListLinks - GET /intents/:id/invite-links
func (h *Handler) ListLinks(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	links, err := h.Service.ListLinks(c.Request.Context(), actor, uint(intentID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite_links": links})
}

// RevokeLink - POST /intents/:id/invite-links/:token/revoke
func (h *Handler) RevokeLink(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	link, err := h.Service.RevokeLink(c.Request.Context(), actor, uint(intentID), c.Param("token"), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite_link": link})
}

// Redeem - POST /invite-links/:token/redeem
func (h *Handler) Redeem(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Redeem(c.Request.Context(), actor, c.Param("token"), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership": m})
}
