package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
	"triagedesk/internal/service"
)

type CustomerReader interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
}

type ProfileReader interface {
	FindByCustomerID(ctx context.Context, customerID string) (*model.CustomerProfile, error)
}

type CustomerMessageLister interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.Message, error)
}

type CustomerHandler struct {
	triageService *service.TriageService
	customers     CustomerReader
	profiles      ProfileReader
	messages      CustomerMessageLister
}

func NewCustomerHandler(
	triageService *service.TriageService,
	customers CustomerReader,
	profiles ProfileReader,
	messages CustomerMessageLister,
) *CustomerHandler {
	return &CustomerHandler{
		triageService: triageService,
		customers:     customers,
		profiles:      profiles,
		messages:      messages,
	}
}

// Reply handles POST /api/customers/:id/reply
func (h *CustomerHandler) Reply(c *gin.Context) {
	agentID, _ := agentIdentity(c)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	customerID := c.Param("id")
	if _, err := h.customers.FindByID(c.Request.Context(), customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, apperr.NotFound("customer not found"))
			return
		}
		writeError(c, apperr.Storage("failed to look up customer", err))
		return
	}

	msg, err := h.triageService.Reply(c.Request.Context(), customerID, req.Content, agentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Messages handles GET /api/customers/:id/messages. The full conversation,
// oldest first.
func (h *CustomerHandler) Messages(c *gin.Context) {
	msgs, err := h.messages.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, apperr.Storage("failed to list messages", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// Profile handles GET /api/customers/:id/profile
func (h *CustomerHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.FindByCustomerID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, apperr.NotFound("profile not found"))
			return
		}
		writeError(c, apperr.Storage("failed to load profile", err))
		return
	}

	c.JSON(http.StatusOK, profile)
}
