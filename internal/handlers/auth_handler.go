package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/middleware"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterInput creates a new school together with its first administrator
// account. Individual staff accounts are created later from the admin panel.
type RegisterInput struct {
	SchoolName string `json:"schoolName" binding:"required"`
	SchoolSlug string `json:"schoolSlug" binding:"required"`
	City       string `json:"city"`
	Login      string `json:"login" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	FullName   string `json:"fullName" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

const tokenLifetime = 24 * time.Hour

func issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"school_id": user.SchoolID,
		"exp":       time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JwtKey)
}

// LoginHandler verifies credentials and sets the session cookie.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login and password are required"})
		return
	}

	var user models.User
	if err := config.DB.Where("login = ?", input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if user.Status != "active" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is disabled"})
		return
	}

	tokenStr, err := issueToken(&user)
	if err != nil {
		slog.Error("Failed to sign session token", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}

	c.SetCookie("auth_token", tokenStr, int(tokenLifetime.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": tokenStr})
}

// RegisterHandler provisions a school and its admin user in one transaction.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	school := models.School{
		Name:     input.SchoolName,
		Slug:     strings.ToLower(input.SchoolSlug),
		City:     input.City,
		IsActive: true,
	}
	user := models.User{
		Login:    input.Login,
		Email:    input.Email,
		FullName: input.FullName,
		Password: string(hashedPassword),
		Status:   "active",
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&school).Error; err != nil {
			return err
		}
		user.SchoolID = school.ID
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		var adminRole models.Role
		if err := tx.Where("name = ? AND school_id IS NULL", "admin").First(&adminRole).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Replace([]models.Role{adminRole})
	})
	if err != nil {
		slog.Error("School registration failed", "error", err, "slug", input.SchoolSlug)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not register school, the slug or login may already be taken"})
		return
	}

	slog.Info("School registered", "school_id", school.ID, "admin_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"schoolId": school.ID, "userId": user.ID})
}

// LogoutHandler ends the session: the cookie is cleared, the cached session
// data is dropped, and every progress card lock the user still holds is
// released so colleagues are not stuck waiting out the TTL.
func LogoutHandler(c *gin.Context) {
	userID := currentUserID(c)
	if userID != 0 {
		if released, err := lockCoordinator().ReleaseAllHeldBy(userID); err != nil {
			slog.Error("Failed to release card locks on logout", "error", err, "user_id", userID)
		} else if released > 0 {
			slog.Info("Released card locks on logout", "user_id", userID, "count", released)
		}
		middleware.InvalidateUserCache(userID)
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
