package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// useTestDB points the shared handle at a fresh in-memory database for the
// duration of one test.
func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}))

	previous := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = previous })
	return db
}

func sessionContext(t *testing.T, schoolID uint, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", uint(1))
	c.Set("school_id", schoolID)
	return c, rec
}

func seedRole(t *testing.T, db *gorm.DB, schoolID *uint, name string) *models.Role {
	t.Helper()
	role := &models.Role{SchoolID: schoolID, Name: name}
	require.NoError(t, db.Create(role).Error)
	return role
}

func TestListRolesScopedToSchool(t *testing.T) {
	db := useTestDB(t)
	one := uint(1)
	two := uint(2)
	seedRole(t, db, nil, "admin")
	seedRole(t, db, &one, "assistant")
	seedRole(t, db, &two, "director")

	c, rec := sessionContext(t, 1, "GET", "/api/roles?all=true", nil)
	ListRolesHandler(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var roles []models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))

	var names []string
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.ElementsMatch(t, []string{"admin", "assistant"}, names)
}

func TestUpdateRoleOtherSchoolNotFound(t *testing.T) {
	db := useTestDB(t)
	two := uint(2)
	foreign := seedRole(t, db, &two, "director")

	c, rec := sessionContext(t, 1, "PUT", "/api/roles/"+strconv.Itoa(int(foreign.ID)),
		RoleInput{Name: "renamed"})
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(foreign.ID))}}
	UpdateRoleHandler(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var kept models.Role
	require.NoError(t, db.First(&kept, foreign.ID).Error)
	assert.Equal(t, "director", kept.Name)
}

func TestBuiltInRoleImmutable(t *testing.T) {
	db := useTestDB(t)
	admin := seedRole(t, db, nil, "admin")

	c, rec := sessionContext(t, 1, "PUT", "/api/roles/"+strconv.Itoa(int(admin.ID)),
		RoleInput{Name: "renamed"})
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(admin.ID))}}
	UpdateRoleHandler(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = sessionContext(t, 1, "DELETE", "/api/roles/"+strconv.Itoa(int(admin.ID)), nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(admin.ID))}}
	DeleteRoleHandler(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRoleOwnedByCallerSchool(t *testing.T) {
	db := useTestDB(t)

	c, rec := sessionContext(t, 3, "POST", "/api/roles", RoleInput{Name: "assistant"})
	CreateRoleHandler(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Role
	require.NoError(t, db.Where("name = ?", "assistant").First(&created).Error)
	require.NotNil(t, created.SchoolID)
	assert.Equal(t, uint(3), *created.SchoolID)
}

func TestCreateRoleReservedName(t *testing.T) {
	useTestDB(t)

	c, rec := sessionContext(t, 1, "POST", "/api/roles", RoleInput{Name: "admin"})
	CreateRoleHandler(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
