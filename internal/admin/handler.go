package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
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

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// UpdateIntent - PUT /admin/intents/:id
func (h *Handler) UpdateIntent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req intent.UpdateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	it, err := h.Service.UpdateIntent(c.Request.Context(), actor, id, &req, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intent": it})
}

// BulkUpdateIntents - POST /admin/intents/bulk-update
func (h *Handler) BulkUpdateIntents(c *gin.Context) {
	var req BulkUpdateIntentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must not be empty"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	result, err := h.Service.BulkUpdateIntents(c.Request.Context(), actor, &req, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChangeIntentOwner - POST /admin/intents/:id/owner
func (h *Handler) ChangeIntentOwner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ChangeOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	it, err := h.Service.ChangeIntentOwner(c.Request.Context(), actor, id, req.NewOwnerID, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intent": it})
}

// BanUser - POST /admin/users/:id/ban
func (h *Handler) BanUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	user, err := h.Service.BanUser(c.Request.Context(), actor, id, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UnbanUser - POST /admin/users/:id/unban
func (h *Handler) UnbanUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	user, err := h.Service.UnbanUser(c.Request.Context(), actor, id, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
