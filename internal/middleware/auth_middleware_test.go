package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

func authTestSetup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}))

	previousDB, previousKey := config.DB, config.JwtKey
	config.DB = db
	config.JwtKey = []byte("test-secret")
	t.Cleanup(func() {
		config.DB = previousDB
		config.JwtKey = previousKey
	})
	return db
}

func signedToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   userID,
		"school_id": uint(1),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(config.JwtKey)
	require.NoError(t, err)
	return signed
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthMiddlewareAccountStatus(t *testing.T) {
	db := authTestSetup(t)
	r := authTestRouter()

	active := models.User{SchoolID: 1, Login: "ana", Email: "ana@example.com", Status: "active"}
	require.NoError(t, db.Create(&active).Error)
	disabled := models.User{SchoolID: 1, Login: "ion", Email: "ion@example.com", Status: "disabled"}
	require.NoError(t, db.Create(&disabled).Error)

	tests := []struct {
		name     string
		userID   uint
		wantCode int
	}{
		{name: "active account passes", userID: active.ID, wantCode: http.StatusOK},
		{name: "disabled account rejected despite valid token", userID: disabled.ID, wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+signedToken(t, tt.userID))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
