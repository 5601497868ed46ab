package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

type GroupInput struct {
	Name      string `json:"name" binding:"required"`
	AgeRange  string `json:"ageRange"`
	TeacherID *uint  `json:"teacherId"`
}

// ListGroupsHandler returns the school's classroom groups with their lead
// teachers.
func ListGroupsHandler(c *gin.Context) {
	var groups []models.Group
	err := config.DB.Preload("Teacher").
		Where("school_id = ?", currentSchoolID(c)).
		Order("name asc").
		Find(&groups).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// CreateGroupHandler creates a classroom group. The lead teacher, when given,
// must be staff of the same school.
func CreateGroupHandler(c *gin.Context) {
	var input GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schoolID := currentSchoolID(c)

	if input.TeacherID != nil {
		var teacher models.User
		if err := config.DB.Where("id = ? AND school_id = ?", *input.TeacherID, schoolID).First(&teacher).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
			return
		}
	}

	group := models.Group{
		SchoolID:  schoolID,
		Name:      input.Name,
		AgeRange:  input.AgeRange,
		TeacherID: input.TeacherID,
	}
	if err := config.DB.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create group"})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateGroupHandler renames a group or reassigns its lead teacher.
func UpdateGroupHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	var group models.Group
	if err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), schoolID).First(&group).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var input GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.TeacherID != nil {
		var teacher models.User
		if err := config.DB.Where("id = ? AND school_id = ?", *input.TeacherID, schoolID).First(&teacher).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
			return
		}
	}

	group.Name = input.Name
	group.AgeRange = input.AgeRange
	group.TeacherID = input.TeacherID
	if err := config.DB.Save(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteGroupHandler removes an empty group. Groups with active enrollments
// cannot be deleted.
func DeleteGroupHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	var group models.Group
	if err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), schoolID).First(&group).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var enrolled int64
	config.DB.Model(&models.Enrollment{}).
		Where("group_id = ? AND status = ?", group.ID, models.EnrollmentActive).
		Count(&enrolled)
	if enrolled > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Group still has active enrollments"})
		return
	}

	if err := config.DB.Delete(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}
