package api

import (
	"github.com/gin-gonic/gin"

	"triagedesk/internal/apperr"
)

// writeError maps an application error onto the wire format shared by every
// endpoint: {"code": ..., "error": ...} with the taxonomy's status code.
func writeError(c *gin.Context, err error) {
	ae := apperr.As(err)
	c.JSON(ae.HTTPStatus(), gin.H{
		"code":  string(ae.Code),
		"error": ae.Message,
	})
}
