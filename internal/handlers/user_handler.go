package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/middleware"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// UserResponse defines the structure for user data sent in API responses.
// This helps prevent accidental leakage of the password hash.
type UserResponse struct {
	ID        uint      `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(user models.User) UserResponse {
	var roleNames []string
	for _, role := range user.Roles {
		roleNames = append(roleNames, role.Name)
	}
	return UserResponse{
		ID:        user.ID,
		Login:     user.Login,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Status:    user.Status,
		Roles:     roleNames,
		CreatedAt: user.CreatedAt,
	}
}

// CreateUserInput defines the structure for creating a staff account from
// the admin panel.
type CreateUserInput struct {
	Login    string `json:"login" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
	RoleIDs  []uint `json:"roleIds"`
}

// UpdateUserInput defines the structure for updating a staff account.
type UpdateUserInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Status   string `json:"status" binding:"required"`
	RoleIDs  []uint `json:"roleIds"`
	Password string `json:"password"` // optional password change
}

// ListUsersHandler returns the school's staff accounts with their roles.
func ListUsersHandler(c *gin.Context) {
	query := config.DB.Preload("Roles").
		Where("school_id = ?", currentSchoolID(c)).
		Order("id asc")

	var users []models.User
	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
			return
		}
		responseData := make([]UserResponse, 0, len(users))
		for _, user := range users {
			responseData = append(responseData, toUserResponse(user))
		}
		c.JSON(http.StatusOK, gin.H{"data": responseData})
		return
	}

	var totalRows int64
	config.DB.Model(&models.User{}).Where("school_id = ?", currentSchoolID(c)).Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
		return
	}

	responseData := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toUserResponse(user))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// GetUserHandler retrieves a single staff account.
func GetUserHandler(c *gin.Context) {
	var user models.User
	err := config.DB.Preload("Roles").
		Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).
		First(&user).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// CreateUserHandler creates a staff account within the caller's school.
func CreateUserHandler(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		SchoolID: currentSchoolID(c),
		Login:    input.Login,
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashedPassword),
		Status:   "active",
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if len(input.RoleIDs) > 0 {
			var roles []models.Role
			err := tx.Where("id IN ? AND (school_id IS NULL OR school_id = ?)", input.RoleIDs, user.SchoolID).
				Find(&roles).Error
			if err != nil {
				return err
			}
			return tx.Model(&user).Association("Roles").Replace(roles)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to create user", "error", err, "login", input.Login)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not create user, the login or email may already be taken"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

// UpdateUserHandler updates a staff account and its roles, dropping the
// user's cached session data so the change takes effect immediately.
func UpdateUserHandler(c *gin.Context) {
	var user models.User
	err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).First(&user).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.FullName = input.FullName
	user.Email = input.Email
	user.Phone = input.Phone
	user.Status = input.Status
	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hashedPassword)
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if input.RoleIDs != nil {
			var roles []models.Role
			err := tx.Where("id IN ? AND (school_id IS NULL OR school_id = ?)", input.RoleIDs, user.SchoolID).
				Find(&roles).Error
			if err != nil {
				return err
			}
			return tx.Model(&user).Association("Roles").Replace(roles)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to update user", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update user"})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

// DeactivateUserHandler disables an account and releases any progress card
// locks it still holds.
func DeactivateUserHandler(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	res := config.DB.Model(&models.User{}).
		Where("id = ? AND school_id = ?", userID, currentSchoolID(c)).
		Update("status", "disabled")
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not deactivate user"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if _, err := lockCoordinator().ReleaseAllHeldBy(userID); err != nil {
		slog.Error("Failed to release locks of deactivated user", "error", err, "user_id", userID)
	}
	middleware.InvalidateUserCache(userID)
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}
