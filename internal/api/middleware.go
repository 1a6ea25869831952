package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"triagedesk/pkg/metrics"
	"triagedesk/pkg/util"
)

// AuthMiddleware validates the bearer token and stores the agent's identity
// in the request context. Every protected handler reads agent_id from here;
// there is no other source of agent identity.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		agentID, agentName, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("agent_id", agentID)
		c.Set("agent_name", agentName)

		c.Next()
	}
}

// MetricsMiddleware times every request by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

func agentIdentity(c *gin.Context) (id, name string) {
	if v, ok := c.Get("agent_id"); ok {
		id, _ = v.(string)
	}
	if v, ok := c.Get("agent_name"); ok {
		name, _ = v.(string)
	}
	return id, name
}
