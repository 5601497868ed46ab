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

// ChildInput carries child profile fields. MonthlyFee is in RON (major
// units); it is converted to bani and bounds-checked before anything is
// persisted. Note there is no school field: the tenant always comes from the
// session.
type ChildInput struct {
	FirstName   string           `json:"firstName" binding:"required"`
	LastName    string           `json:"lastName" binding:"required"`
	Gender      string           `json:"gender"`
	BirthDate   *time.Time       `json:"birthDate"`
	ParentName  string           `json:"parentName"`
	ParentPhone string           `json:"parentPhone"`
	ParentEmail string           `json:"parentEmail"`
	HomeAddress string           `json:"homeAddress"`
	MedicalInfo string           `json:"medicalInfo"`
	Comments    string           `json:"comments"`
	MonthlyFee  *decimal.Decimal `json:"monthlyFee"`
}

// ChildUpdateInput is the PATCH variant: only present fields are applied.
type ChildUpdateInput struct {
	FirstName   *string          `json:"firstName"`
	LastName    *string          `json:"lastName"`
	Gender      *string          `json:"gender"`
	BirthDate   *time.Time       `json:"birthDate"`
	ParentName  *string          `json:"parentName"`
	ParentPhone *string          `json:"parentPhone"`
	ParentEmail *string          `json:"parentEmail"`
	HomeAddress *string          `json:"homeAddress"`
	MedicalInfo *string          `json:"medicalInfo"`
	Comments    *string          `json:"comments"`
	MonthlyFee  *decimal.Decimal `json:"monthlyFee"`
	Status      *string          `json:"status"`
}

// feeToMinor converts and bounds-checks a major-unit fee from a request.
func feeToMinor(major decimal.Decimal) (int64, error) {
	minor, err := fees.ToMinorUnits(major)
	if err != nil {
		return 0, err
	}
	if err := fees.ValidateBounds(minor, config.MaxFeeMinor); err != nil {
		return 0, err
	}
	return minor, nil
}

// ListChildrenHandler returns the school's children, paginated. Inactive
// children are included only when ?includeInactive=true.
func ListChildrenHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	query := config.DB.Model(&models.Child{}).Where("school_id = ?", schoolID)
	if c.Query("includeInactive") != "true" {
		query = query.Where("status = ?", "active")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ?", like, like)
	}

	var totalRows int64
	query.Count(&totalRows)

	var children []models.Child
	if err := query.Order("last_name asc, first_name asc").Scopes(Paginate(c)).Find(&children).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch children"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, children, totalRows))
}

// CreateChildHandler creates a child profile with an optional default fee.
func CreateChildHandler(c *gin.Context) {
	var input ChildInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var feeMinor int64
	if input.MonthlyFee != nil {
		minor, err := feeToMinor(*input.MonthlyFee)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_fee"})
			return
		}
		feeMinor = minor
	}

	child := models.Child{
		SchoolID:        currentSchoolID(c),
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Gender:          input.Gender,
		BirthDate:       input.BirthDate,
		ParentName:      input.ParentName,
		ParentPhone:     input.ParentPhone,
		ParentEmail:     input.ParentEmail,
		HomeAddress:     input.HomeAddress,
		MedicalInfo:     input.MedicalInfo,
		Comments:        input.Comments,
		MonthlyFeeMinor: feeMinor,
		Status:          "active",
	}

	if err := config.DB.Create(&child).Error; err != nil {
		slog.Error("Failed to create child", "error", err, "school_id", child.SchoolID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create child"})
		return
	}

	c.JSON(http.StatusCreated, child)
}

// GetChildHandler returns one child. A child of another school reads as a
// plain 404.
func GetChildHandler(c *gin.Context) {
	var child models.Child
	err := config.DB.Preload("Enrollments").
		Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).
		First(&child).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}
	c.JSON(http.StatusOK, child)
}

// UpdateChildHandler applies a partial profile/fee update. The fee bounds are
// re-checked here because the JSON API is an entry point of its own, not just
// a backend for the admin forms.
func UpdateChildHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	var child models.Child
	if err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), schoolID).First(&child).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}

	var input ChildUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Gender != nil {
		updates["gender"] = *input.Gender
	}
	if input.BirthDate != nil {
		updates["birth_date"] = *input.BirthDate
	}
	if input.ParentName != nil {
		updates["parent_name"] = *input.ParentName
	}
	if input.ParentPhone != nil {
		updates["parent_phone"] = *input.ParentPhone
	}
	if input.ParentEmail != nil {
		updates["parent_email"] = *input.ParentEmail
	}
	if input.HomeAddress != nil {
		updates["home_address"] = *input.HomeAddress
	}
	if input.MedicalInfo != nil {
		updates["medical_info"] = *input.MedicalInfo
	}
	if input.Comments != nil {
		updates["comments"] = *input.Comments
	}
	if input.Status != nil {
		if *input.Status != "active" && *input.Status != "inactive" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active or inactive"})
			return
		}
		updates["status"] = *input.Status
	}
	if input.MonthlyFee != nil {
		minor, err := feeToMinor(*input.MonthlyFee)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_fee"})
			return
		}
		updates["monthly_fee_minor"] = minor
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, child)
		return
	}

	if err := config.DB.Model(&child).Updates(updates).Error; err != nil {
		slog.Error("Failed to update child", "error", err, "child_id", child.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update child"})
		return
	}

	c.JSON(http.StatusOK, child)
}

// DeactivateChildHandler soft-deletes: children are never physically removed,
// the status flag just hides them from the default listings.
func DeactivateChildHandler(c *gin.Context) {
	res := config.DB.Model(&models.Child{}).
		Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).
		Update("status", "inactive")
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not deactivate child"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Child deactivated"})
}

// GetChildFeeDetailsHandler lists the child's default fee plus the effective
// fee of every enrollment, resolved through the fee engine.
func GetChildFeeDetailsHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	var child models.Child
	err := config.DB.Preload("Enrollments", func(db *gorm.DB) *gorm.DB {
		return db.Where("school_id = ?", schoolID).Order("id asc")
	}).Where("id = ? AND school_id = ?", c.Param("id"), schoolID).First(&child).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch fee details"})
		return
	}

	pairs := make([]fees.Pair, len(child.Enrollments))
	for i, enrollment := range child.Enrollments {
		pairs[i] = fees.Pair{
			ChildDefaultMinor: child.MonthlyFeeMinor,
			OverrideMinor:     enrollment.MonthlyFeeOverrideMinor,
		}
	}
	resolved := fees.ResolveBatch(pairs)

	type enrollmentFee struct {
		EnrollmentID uint              `json:"enrollmentId"`
		Status       string            `json:"status"`
		EffectiveFee fees.EffectiveFee `json:"effectiveFee"`
	}
	enrollmentFees := make([]enrollmentFee, len(resolved))
	for i, enrollment := range child.Enrollments {
		enrollmentFees[i] = enrollmentFee{
			EnrollmentID: enrollment.ID,
			Status:       enrollment.Status,
			EffectiveFee: resolved[i],
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"childId":           child.ID,
		"defaultFeeMinor":   child.MonthlyFeeMinor,
		"defaultFeeDisplay": fees.FormatDisplay(child.MonthlyFeeMinor),
		"enrollments":       enrollmentFees,
	})
}
