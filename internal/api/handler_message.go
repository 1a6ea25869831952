package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
	"triagedesk/internal/service"
)

const (
	defaultDashboardLimit = 50
	maxDashboardLimit     = 200
)

// DashboardReader is the read model behind the dashboard and search
// endpoints.
type DashboardReader interface {
	ListDashboard(ctx context.Context, limit int) ([]model.DashboardMessage, error)
	Search(ctx context.Context, query string, limit int) ([]model.DashboardMessage, error)
	GetDashboardByID(ctx context.Context, id string) (*model.DashboardMessage, error)
}

type MessageHandler struct {
	triageService *service.TriageService
	dashboard     DashboardReader
}

func NewMessageHandler(triageService *service.TriageService, dashboard DashboardReader) *MessageHandler {
	return &MessageHandler{
		triageService: triageService,
		dashboard:     dashboard,
	}
}

// Submit handles POST /api/messages. Unauthenticated: this is the customer
// ingestion entry point.
func (h *MessageHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.triageService.Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Import handles POST /api/messages/import. The response is always the
// aggregate result, 200 even when every record failed.
func (h *MessageHandler) Import(c *gin.Context) {
	var req struct {
		Records []service.ImportRecord `json:"records"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records must not be empty"})
		return
	}

	result := h.triageService.Import(c.Request.Context(), req.Records)
	c.JSON(http.StatusOK, result)
}

// Dashboard handles GET /api/messages
func (h *MessageHandler) Dashboard(c *gin.Context) {
	msgs, err := h.dashboard.ListDashboard(c.Request.Context(), parseLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// Search handles GET /api/messages/search
func (h *MessageHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, apperr.Validation("query parameter q is required"))
		return
	}

	msgs, err := h.dashboard.Search(c.Request.Context(), query, parseLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	msg, err := h.dashboard.GetDashboardByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, apperr.NotFound("message not found"))
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

func parseLimit(c *gin.Context) int {
	limit := defaultDashboardLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxDashboardLimit {
		limit = maxDashboardLimit
	}
	return limit
}
