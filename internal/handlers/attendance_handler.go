package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

type AttendanceEntry struct {
	ChildID uint   `json:"childId" binding:"required"`
	Status  string `json:"status" binding:"required"`
	Note    string `json:"note"`
}

// MarkAttendanceInput records the register for one day. Re-submitting the
// same day overwrites earlier entries, so morning corrections just work.
type MarkAttendanceInput struct {
	Date    string            `json:"date" binding:"required"` // YYYY-MM-DD
	Entries []AttendanceEntry `json:"entries" binding:"required,min=1,dive"`
}

func validAttendanceStatus(s string) bool {
	switch s {
	case models.AttendancePresent, models.AttendanceAbsent, models.AttendanceExcused:
		return true
	}
	return false
}

// MarkAttendanceHandler upserts attendance entries for the given date. Each
// child must belong to the caller's school; unknown children fail the whole
// request before anything is written.
func MarkAttendanceHandler(c *gin.Context) {
	var input MarkAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	schoolID := currentSchoolID(c)
	userID := currentUserID(c)

	childIDs := make([]uint, len(input.Entries))
	for i, entry := range input.Entries {
		if !validAttendanceStatus(entry.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown attendance status: " + entry.Status})
			return
		}
		childIDs[i] = entry.ChildID
	}

	var known int64
	config.DB.Model(&models.Child{}).
		Where("school_id = ? AND id IN ?", schoolID, childIDs).
		Count(&known)
	if known != int64(len(childIDs)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}

	rows := make([]models.Attendance, len(input.Entries))
	for i, entry := range input.Entries {
		rows[i] = models.Attendance{
			SchoolID: schoolID,
			ChildID:  entry.ChildID,
			Date:     date,
			Status:   entry.Status,
			Note:     entry.Note,
			NotedBy:  userID,
		}
	}

	err = config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "child_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "note", "noted_by", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		slog.Error("Failed to save attendance", "error", err, "school_id", schoolID, "date", input.Date)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save attendance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(rows)})
}

// ListAttendanceHandler returns entries for a date, optionally narrowed to a
// group's children.
func ListAttendanceHandler(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	query := config.DB.Model(&models.Attendance{}).Preload("Child").
		Where("attendances.school_id = ? AND date = ?", currentSchoolID(c), date)

	if groupID := c.Query("groupId"); groupID != "" {
		query = query.
			Joins("JOIN enrollments ON enrollments.child_id = attendances.child_id AND enrollments.status = ?", models.EnrollmentActive).
			Where("enrollments.group_id = ?", groupID)
	}

	var entries []models.Attendance
	if err := query.Order("child_id asc").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch attendance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": dateStr, "entries": entries})
}
