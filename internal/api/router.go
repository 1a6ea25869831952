package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	messageHandler *MessageHandler,
	assignmentHandler *AssignmentHandler,
	customerHandler *CustomerHandler,
	cannedHandler *CannedHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/api/messages", messageHandler.Submit)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/api")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/messages/import", messageHandler.Import)
		auth.GET("/messages", messageHandler.Dashboard)
		auth.GET("/messages/search", messageHandler.Search)
		auth.GET("/messages/:id", messageHandler.Get)
		auth.POST("/messages/:id/assign", assignmentHandler.Claim)
		auth.DELETE("/messages/:id/assign", assignmentHandler.Unclaim)
		auth.POST("/customers/:id/reply", customerHandler.Reply)
		auth.GET("/customers/:id/messages", customerHandler.Messages)
		auth.GET("/customers/:id/profile", customerHandler.Profile)
		auth.GET("/canned-messages", cannedHandler.List)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
