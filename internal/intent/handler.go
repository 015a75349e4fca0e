package intent

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
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// CreateIntent - POST /intents
func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	it, err := h.Service.CreateIntent(c.Request.Context(), actor, &req, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"intent": it})
}

// GetIntent - GET /intents/:id
func (h *Handler) GetIntent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	it, err := h.Service.GetIntent(c.Request.Context(), actor, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intent": it})
}

// ListIntents - GET /intents
func (h *Handler) ListIntents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	intents, err := h.Service.ListPublicIntents(limit, offset, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list intents: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"intents": intents})
}

// ListOwnIntents - GET /intents/mine
func (h *Handler) ListOwnIntents(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	intents, err := h.Service.ListOwnIntents(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intents": intents})
}

// UpdateIntent - PUT /intents/:id
func (h *Handler) UpdateIntent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	var req UpdateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	it, err := h.Service.UpdateIntent(c.Request.Context(), actor, uint(id), &req, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intent": it})
}

// CancelIntent - POST /intents/:id/cancel
func (h *Handler) CancelIntent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	it, err := h.Service.CancelIntent(c.Request.Context(), actor, uint(id), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"intent": it})
}

// DeleteIntent - DELETE /intents/:id
func (h *Handler) DeleteIntent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	if err := h.Service.DeleteIntent(c.Request.Context(), actor, uint(id), ip); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "intent deleted"})
}
