package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// GetDashboardHandler returns the headline counts for the school's admin
// dashboard.
func GetDashboardHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)
	today := time.Now().Truncate(24 * time.Hour)

	var activeChildren, activeEnrollments, presentToday, groups int64
	config.DB.Model(&models.Child{}).
		Where("school_id = ? AND status = ?", schoolID, "active").
		Count(&activeChildren)
	config.DB.Model(&models.Enrollment{}).
		Where("school_id = ? AND status = ?", schoolID, models.EnrollmentActive).
		Count(&activeEnrollments)
	config.DB.Model(&models.Attendance{}).
		Where("school_id = ? AND date = ? AND status = ?", schoolID, today, models.AttendancePresent).
		Count(&presentToday)
	config.DB.Model(&models.Group{}).
		Where("school_id = ?", schoolID).
		Count(&groups)

	c.JSON(http.StatusOK, gin.H{
		"activeChildren":    activeChildren,
		"activeEnrollments": activeEnrollments,
		"presentToday":      presentToday,
		"groups":            groups,
	})
}
