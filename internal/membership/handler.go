package membership

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

func pathIDs(c *gin.Context) (uint, uint, bool) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return 0, 0, false
	}
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, 0, false
	}
	return uint(intentID), uint(userID), true
}

// Join - POST /intents/:id/join
func (h *Handler) Join(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Join(c.Request.Context(), actor, uint(intentID), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// Leave - POST /intents/:id/leave
func (h *Handler) Leave(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	if err := h.Service.Leave(c.Request.Context(), actor, uint(intentID), ip); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left intent"})
}

// ListMembers - GET /intents/:id/members
func (h *Handler) ListMembers(c *gin.Context) {
	intentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	members, err := h.Service.ListMembers(c.Request.Context(), actor, uint(intentID), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Approve - POST /intents/:id/members/:userId/approve
func (h *Handler) Approve(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Approve(c.Request.Context(), actor, intentID, userID, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// Reject - POST /intents/:id/members/:userId/reject
func (h *Handler) Reject(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Reject(c.Request.Context(), actor, intentID, userID, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// Kick - POST /intents/:id/members/:userId/kick
func (h *Handler) Kick(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Kick(c.Request.Context(), actor, intentID, userID, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// Ban - POST /intents/:id/members/:userId/ban
func (h *Handler) Ban(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Ban(c.Request.Context(), actor, intentID, userID, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// Invite - POST /intents/:id/members/:userId/invite
func (h *Handler) Invite(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.Invite(c.Request.Context(), actor, intentID, userID, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"membership": m})
}

// SetModerator - PATCH /intents/:id/members/:userId/moderator
func (h *Handler) SetModerator(c *gin.Context) {
	intentID, userID, ok := pathIDs(c)
	if !ok {
		return
	}

	var req struct {
		Moderator bool `json:"moderator"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	m, err := h.Service.SetModerator(c.Request.Context(), actor, intentID, userID, req.Moderator, ip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}
