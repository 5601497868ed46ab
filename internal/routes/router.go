package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/internal/middleware"
)

// SetupRoutes wires all application routes onto the engine. Public auth
// routes come first; everything else sits behind the JWT middleware.
func SetupRoutes(r *gin.Engine) {
	RegisterAuthRoutes(r)

	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
