package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triagedesk/internal/service"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// Claim handles POST /api/messages/:id/assign. The agent identity comes from
// the token, never from the body; the optional body only overrides the
// display name and status.
func (h *AssignmentHandler) Claim(c *gin.Context) {
	agentID, agentName := agentIdentity(c)

	var req struct {
		AgentName string `json:"agent_name"`
		Status    string `json:"status"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&req)
	if req.AgentName == "" {
		req.AgentName = agentName
	}

	a, err := h.assignmentService.Claim(c.Request.Context(), c.Param("id"), agentID, req.AgentName, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// Unclaim handles DELETE /api/messages/:id/assign
func (h *AssignmentHandler) Unclaim(c *gin.Context) {
	agentID, _ := agentIdentity(c)

	if err := h.assignmentService.Unclaim(c.Request.Context(), c.Param("id"), agentID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "released"})
}
