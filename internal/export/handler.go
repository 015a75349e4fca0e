package export

import (
	"net/http"
	"strconv"
	"time"

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

func timeQuery(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// IntentsReport - GET /admin/exports/intents?format=csv&from=&to=
func (h *Handler) IntentsReport(c *gin.Context) {
	format := c.DefaultQuery("format", FormatCSV)

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	data, filename, err := h.Service.IntentsReport(c.Request.Context(), actor, format, timeQuery(c, "from"), timeQuery(c, "to"), ip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, ContentType(format), data)
}

// MembersReport - GET /admin/exports/intents/:id/members?format=xlsx
func (h *Handler) MembersReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}
	format := c.DefaultQuery("format", FormatCSV)

	actor := middleware.ActorFromContext(c)
	ip := middleware.GetIPFromContext(c)

	data, filename, err2 := h.Service.MembersReport(c.Request.Context(), actor, uint(id), format, ip)
	if err2 != nil {
		respondError(c, err2)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, ContentType(format), data)
}
