package checkin

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

func intentIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return 0, false
	}
	return uint(id), true
}

// GetEventToken - GET /intents/:id/checkin/token
func (h *Handler) GetEventToken(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	t, url, err := h.Service.GetEventToken(c.Request.Context(), actor, intentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": t.Value, "checkin_url": url, "rotated_at": t.RotatedAt})
}

// RotateEventToken - POST /intents/:id/checkin/token/rotate
func (h *Handler) RotateEventToken(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	t, url, err := h.Service.RotateEventToken(c.Request.Context(), actor, intentID, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": t.Value, "checkin_url": url, "rotated_at": t.RotatedAt})
}

// GetPersonalToken - GET /intents/:id/checkin/my-token
func (h *Handler) GetPersonalToken(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	t, url, err := h.Service.GetPersonalToken(c.Request.Context(), actor, intentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": t.Value, "checkin_url": url, "rotated_at": t.RotatedAt})
}

// RotatePersonalToken - POST /intents/:id/checkin/my-token/rotate
func (h *Handler) RotatePersonalToken(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	t, url, err := h.Service.RotatePersonalToken(c.Request.Context(), actor, intentID, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": t.Value, "checkin_url": url, "rotated_at": t.RotatedAt})
}

// CheckInByEventQr - POST /intents/:id/checkin/event-qr
func (h *Handler) CheckInByEventQr(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	var req EventQrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	result, err := h.Service.CheckInByEventQr(c.Request.Context(), actor, intentID, req.Token, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// CheckInByUserQr - POST /checkin/user-qr
func (h *Handler) CheckInByUserQr(c *gin.Context) {
	var req UserQrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	result, err := h.Service.CheckInByUserQr(c.Request.Context(), actor, req.Token, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// SelfCheckIn - POST /intents/:id/checkin/self
func (h *Handler) SelfCheckIn(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	result, err := h.Service.SelfCheckIn(c.Request.Context(), actor, intentID, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// PanelCheckIn - POST /intents/:id/checkin/members/:userId
func (h *Handler) PanelCheckIn(c *gin.Context) {
	intentID, ok := intentIDParam(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	result, err := h.Service.PanelCheckIn(c.Request.Context(), actor, intentID, uint(userID), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
