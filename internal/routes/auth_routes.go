package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/handlers"
	"github.com/bogdanmosica/montessori-app-sub002/internal/middleware"
)

// RegisterAuthRoutes registers the public authentication routes. Login is
// rate limited per client IP via the shared Redis counter.
func RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/login", middleware.RateLimit("login", config.LoginRateLimit), handlers.LoginHandler)
	r.POST("/register", middleware.RateLimit("register", config.LoginRateLimit), handlers.RegisterHandler)
}
