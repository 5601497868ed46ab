package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/internal/handlers"
	"github.com/bogdanmosica/montessori-app-sub002/internal/middleware"
)

// RegisterAPIRoutes registers every authenticated API route. Each group is
// gated by a view permission, with finer-grained write permissions per route;
// the admin role bypasses every check.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		apiGroup.GET("/logout", handlers.LogoutHandler)
		apiGroup.GET("/profile", handlers.GetProfileHandler)
		apiGroup.GET("/dashboard", handlers.GetDashboardHandler)

		// --- CHILDREN ---
		children := apiGroup.Group("/children")
		children.Use(middleware.PermissionMiddleware("children_view"))
		{
			children.GET("", handlers.ListChildrenHandler)
			children.POST("", middleware.PermissionMiddleware("children_create"), handlers.CreateChildHandler)
			children.GET("/:id", handlers.GetChildHandler)
			children.PATCH("/:id", middleware.PermissionMiddleware("children_edit"), handlers.UpdateChildHandler)
			children.DELETE("/:id", middleware.PermissionMiddleware("children_delete"), handlers.DeactivateChildHandler)
			children.GET("/:id/fee-details", middleware.PermissionMiddleware("billing_view"), handlers.GetChildFeeDetailsHandler)
		}

		// --- ENROLLMENTS ---
		enrollments := apiGroup.Group("/enrollments")
		enrollments.Use(middleware.PermissionMiddleware("enrollments_view"))
		{
			enrollments.GET("", handlers.ListEnrollmentsHandler)
			enrollments.POST("", middleware.PermissionMiddleware("enrollments_create"), handlers.CreateEnrollmentHandler)
			enrollments.PATCH("/:id", middleware.PermissionMiddleware("enrollments_edit"), handlers.UpdateEnrollmentHandler)
			enrollments.GET("/:id/effective-fee", middleware.PermissionMiddleware("billing_view"), handlers.GetEffectiveFeeHandler)
		}

		// --- GROUPS ---
		groups := apiGroup.Group("/groups")
		groups.Use(middleware.PermissionMiddleware("groups_view"))
		{
			groups.GET("", handlers.ListGroupsHandler)
			groups.POST("", middleware.PermissionMiddleware("groups_edit"), handlers.CreateGroupHandler)
			groups.PUT("/:id", middleware.PermissionMiddleware("groups_edit"), handlers.UpdateGroupHandler)
			groups.DELETE("/:id", middleware.PermissionMiddleware("groups_edit"), handlers.DeleteGroupHandler)
		}

		// --- ATTENDANCE ---
		attendance := apiGroup.Group("/attendance")
		attendance.Use(middleware.PermissionMiddleware("attendance_view"))
		{
			attendance.GET("", handlers.ListAttendanceHandler)
			attendance.POST("", middleware.PermissionMiddleware("attendance_edit"), handlers.MarkAttendanceHandler)
		}

		// --- LESSON PROGRESS BOARD ---
		progress := apiGroup.Group("/progress")
		progress.Use(middleware.PermissionMiddleware("progress_view"))
		{
			progress.GET("/board", handlers.GetProgressBoardHandler)
			progress.GET("/ws", handlers.BoardWSEndpoint)
			progress.POST("/cards", middleware.PermissionMiddleware("progress_edit"), handlers.CreateProgressCardHandler)
			progress.POST("/cards/:id/lock", middleware.PermissionMiddleware("progress_edit"), handlers.AcquireCardLockHandler)
			progress.DELETE("/cards/:id/lock", middleware.PermissionMiddleware("progress_edit"), handlers.ReleaseCardLockHandler)
			progress.POST("/move", middleware.PermissionMiddleware("progress_edit"), handlers.BatchMoveHandler)
			progress.POST("/reorder", middleware.PermissionMiddleware("progress_edit"), handlers.ReorderColumnHandler)
		}

		// --- REPORTS ---
		reports := apiGroup.Group("/reports")
		reports.Use(middleware.PermissionMiddleware("reports_view"))
		{
			reports.GET("/billing/export", handlers.ExportBillingReportHandler)
			reports.GET("/attendance/export", handlers.ExportAttendanceReportHandler)
		}

		// --- USERS ---
		users := apiGroup.Group("/users")
		users.Use(middleware.PermissionMiddleware("users_view"))
		{
			users.GET("", handlers.ListUsersHandler)
			users.POST("", middleware.PermissionMiddleware("users_create"), handlers.CreateUserHandler)
			users.GET("/:id", handlers.GetUserHandler)
			users.PUT("/:id", middleware.PermissionMiddleware("users_edit"), handlers.UpdateUserHandler)
			users.DELETE("/:id", middleware.PermissionMiddleware("users_delete"), handlers.DeactivateUserHandler)
		}

		// --- ROLES & PERMISSIONS ---
		roles := apiGroup.Group("/roles")
		roles.Use(middleware.PermissionMiddleware("roles_view"))
		{
			roles.GET("", handlers.ListRolesHandler)
			roles.POST("", middleware.PermissionMiddleware("roles_edit"), handlers.CreateRoleHandler)
			roles.PUT("/:id", middleware.PermissionMiddleware("roles_edit"), handlers.UpdateRoleHandler)
			roles.DELETE("/:id", middleware.PermissionMiddleware("roles_edit"), handlers.DeleteRoleHandler)
		}
		apiGroup.GET("/permissions", middleware.PermissionMiddleware("roles_view"), handlers.ListPermissionsHandler)
	}
}
