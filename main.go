package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/handlers"
	"github.com/bogdanmosica/montessori-app-sub002/internal/progress"
	"github.com/bogdanmosica/montessori-app-sub002/internal/routes"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

func main() {
	config.Load()
	config.ConnectDB()
	config.ConnectRedis()

	err := config.DB.AutoMigrate(
		&models.School{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Child{},
		&models.Enrollment{},
		&models.Group{},
		&models.Attendance{},
		&models.LessonProgressCard{},
	)
	if err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	if err := models.SeedRBAC(config.DB); err != nil {
		slog.Error("RBAC seeding failed", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalBoardHub.Run()
	go runLockSweeper()

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// runLockSweeper periodically clears expired card locks. Acquire re-checks
// expiry on its own, so the sweep only keeps stale rows from lingering.
func runLockSweeper() {
	coordinator := progress.NewCoordinator(config.DB, config.LockTTL)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if released, err := coordinator.SweepExpired(); err != nil {
			slog.Error("Lock sweep failed", "error", err)
		} else if released > 0 {
			slog.Info("Swept expired card locks", "count", released)
		}
	}
}
