package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triagedesk/internal/service"
)

type CannedHandler struct {
	cannedService *service.CannedService
}

func NewCannedHandler(cannedService *service.CannedService) *CannedHandler {
	return &CannedHandler{
		cannedService: cannedService,
	}
}

// List handles GET /api/canned-messages. Pass ?grouped=true to get the
// templates keyed by category.
func (h *CannedHandler) List(c *gin.Context) {
	if c.Query("grouped") == "true" {
		grouped, err := h.cannedService.Grouped(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, grouped)
		return
	}

	templates, err := h.cannedService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"canned_messages": templates, "count": len(templates)})
}
