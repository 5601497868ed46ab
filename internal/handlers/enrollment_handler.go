package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/fees"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// EnrollmentInput creates an enrollment. MonthlyFeeOverride is in RON; when
// absent the enrollment bills the child's default fee.
type EnrollmentInput struct {
	ChildID            uint             `json:"childId" binding:"required"`
	GroupID            *uint            `json:"groupId"`
	StartDate          *time.Time       `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
	MonthlyFeeOverride *decimal.Decimal `json:"monthlyFeeOverride"`
}

// EnrollmentUpdateInput patches an enrollment. ClearFeeOverride removes the
// override and reverts the enrollment to the child default; it cannot be
// expressed by omitting the field, since omission means "leave unchanged".
type EnrollmentUpdateInput struct {
	GroupID            *uint            `json:"groupId"`
	StartDate          *time.Time       `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
	Status             *string          `json:"status"`
	MonthlyFeeOverride *decimal.Decimal `json:"monthlyFeeOverride"`
	ClearFeeOverride   bool             `json:"clearFeeOverride"`
}

func validEnrollmentStatus(s string) bool {
	switch s {
	case models.EnrollmentActive, models.EnrollmentWithdrawn, models.EnrollmentInactive, models.EnrollmentArchived:
		return true
	}
	return false
}

// ListEnrollmentsHandler returns the school's enrollments, optionally
// filtered by child or status.
func ListEnrollmentsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Enrollment{}).
		Where("school_id = ?", currentSchoolID(c)).
		Preload("Child").Preload("Group")

	if childID := c.Query("childId"); childID != "" {
		query = query.Where("child_id = ?", childID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	query.Count(&totalRows)

	var enrollments []models.Enrollment
	if err := query.Order("id desc").Scopes(Paginate(c)).Find(&enrollments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch enrollments"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, enrollments, totalRows))
}

// CreateEnrollmentHandler enrolls a child. The child must belong to the
// caller's school, and a child can hold only one ACTIVE enrollment per
// school at a time.
func CreateEnrollmentHandler(c *gin.Context) {
	var input EnrollmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schoolID := currentSchoolID(c)

	var overrideMinor *int64
	if input.MonthlyFeeOverride != nil {
		minor, err := feeToMinor(*input.MonthlyFeeOverride)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_fee"})
			return
		}
		overrideMinor = &minor
	}

	var child models.Child
	if err := config.DB.Where("id = ? AND school_id = ?", input.ChildID, schoolID).First(&child).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}

	if input.GroupID != nil {
		var group models.Group
		if err := config.DB.Where("id = ? AND school_id = ?", *input.GroupID, schoolID).First(&group).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
	}

	enrollment := models.Enrollment{
		SchoolID:                schoolID,
		ChildID:                 input.ChildID,
		GroupID:                 input.GroupID,
		StartDate:               input.StartDate,
		EndDate:                 input.EndDate,
		Status:                  models.EnrollmentActive,
		MonthlyFeeOverrideMinor: overrideMinor,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Enrollment{}).
			Where("school_id = ? AND child_id = ? AND status = ?", schoolID, input.ChildID, models.EnrollmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errActiveEnrollmentExists
		}
		return tx.Create(&enrollment).Error
	})
	if err != nil {
		if errors.Is(err, errActiveEnrollmentExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Child already has an active enrollment", "code": "active_enrollment_exists"})
			return
		}
		slog.Error("Failed to create enrollment", "error", err, "child_id", input.ChildID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create enrollment"})
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

var errActiveEnrollmentExists = errors.New("active enrollment exists")

// UpdateEnrollmentHandler patches an enrollment, including setting or
// clearing the fee override. ARCHIVED enrollments are immutable.
func UpdateEnrollmentHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	var enrollment models.Enrollment
	if err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), schoolID).First(&enrollment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
		return
	}

	if !enrollment.IsMutable() {
		c.JSON(http.StatusConflict, gin.H{"error": "Archived enrollments cannot be modified", "code": "enrollment_archived"})
		return
	}

	var input EnrollmentUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.MonthlyFeeOverride != nil && input.ClearFeeOverride {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot set and clear the fee override in the same request"})
		return
	}

	updates := map[string]interface{}{}
	if input.GroupID != nil {
		var group models.Group
		if err := config.DB.Where("id = ? AND school_id = ?", *input.GroupID, schoolID).First(&group).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		updates["group_id"] = *input.GroupID
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.Status != nil {
		if !validEnrollmentStatus(*input.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown enrollment status"})
			return
		}
		if *input.Status == models.EnrollmentActive && enrollment.Status != models.EnrollmentActive {
			var active int64
			config.DB.Model(&models.Enrollment{}).
				Where("school_id = ? AND child_id = ? AND status = ? AND id <> ?",
					schoolID, enrollment.ChildID, models.EnrollmentActive, enrollment.ID).
				Count(&active)
			if active > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": "Child already has an active enrollment", "code": "active_enrollment_exists"})
				return
			}
		}
		updates["status"] = *input.Status
	}
	if input.MonthlyFeeOverride != nil {
		minor, err := feeToMinor(*input.MonthlyFeeOverride)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_fee"})
			return
		}
		updates["monthly_fee_override_minor"] = minor
	}
	if input.ClearFeeOverride {
		updates["monthly_fee_override_minor"] = nil
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, enrollment)
		return
	}

	if err := config.DB.Model(&enrollment).Updates(updates).Error; err != nil {
		slog.Error("Failed to update enrollment", "error", err, "enrollment_id", enrollment.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update enrollment"})
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// GetEffectiveFeeHandler resolves the single fee billed for one enrollment,
// with its provenance tag.
func GetEffectiveFeeHandler(c *gin.Context) {
	var enrollment models.Enrollment
	err := config.DB.Preload("Child").
		Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).
		First(&enrollment).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
		return
	}
	if enrollment.Child == nil {
		slog.Error("Enrollment without child record", "enrollment_id", enrollment.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not resolve fee"})
		return
	}

	resolved := fees.Resolve(enrollment.Child.MonthlyFeeMinor, enrollment.MonthlyFeeOverrideMinor)
	c.JSON(http.StatusOK, gin.H{
		"enrollmentId": enrollment.ID,
		"effectiveFee": resolved,
	})
}
