package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// GetProfileHandler returns the caller's own account with the full
// permission list, for the frontend to decide what to render.
func GetProfileHandler(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := config.DB.Preload("Roles").Preload("School").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	permissions, err := models.GetUserPermissions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load permissions"})
		return
	}
	permissionNames := make([]string, 0, len(permissions))
	for _, permission := range permissions {
		permissionNames = append(permissionNames, permission.Name)
	}

	schoolName := ""
	if user.School != nil {
		schoolName = user.School.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toUserResponse(user),
		"school":      schoolName,
		"permissions": permissionNames,
	})
}
