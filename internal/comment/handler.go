package comment

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

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// CreateComment - POST /intents/:id/comments
func (h *Handler) CreateComment(c *gin.Context) {
	intentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	comment, err := h.Service.CreateComment(c.Request.Context(), actor, intentID, req.Body, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// ListComments - GET /intents/:id/comments?limit=&offset=
func (h *Handler) ListComments(c *gin.Context) {
	intentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	actor := middleware.ActorFromContext(c)
	comments, total, err := h.Service.ListComments(actor, intentID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": total})
}

// UpdateComment - PUT /comments/:commentId
func (h *Handler) UpdateComment(c *gin.Context) {
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	comment, err := h.Service.UpdateComment(c.Request.Context(), actor, commentID, req.Body, ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// DeleteComment - DELETE /comments/:commentId
func (h *Handler) DeleteComment(c *gin.Context) {
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	if err := h.Service.DeleteComment(c.Request.Context(), actor, commentID, ip); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
