package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// roleCatalogScope limits a query to the roles visible to the caller's
// school: the shared built-in roles plus the school's own.
func roleCatalogScope(c *gin.Context) func(*gorm.DB) *gorm.DB {
	schoolID := currentSchoolID(c)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("school_id IS NULL OR school_id = ?", schoolID)
	}
}

// ListRolesHandler fetches the roles visible to the caller's school with
// their associated permissions.
func ListRolesHandler(c *gin.Context) {
	var roles []models.Role

	// Preload permissions to avoid N+1 queries
	query := config.DB.Preload("Permissions").Scopes(roleCatalogScope(c)).Order("name")

	if c.Query("all") == "true" {
		if err := query.Find(&roles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch roles"})
			return
		}
		if roles == nil {
			roles = make([]models.Role, 0)
		}
		c.JSON(http.StatusOK, roles)
		return
	}

	var totalRows int64
	config.DB.Model(&models.Role{}).Scopes(roleCatalogScope(c)).Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch roles"})
		return
	}
	if roles == nil {
		roles = make([]models.Role, 0)
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, roles, totalRows))
}

type RoleInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permissionIds"`
}

// reservedRoleNames are the built-in role names no school may claim.
var reservedRoleNames = map[string]bool{"admin": true, "teacher": true}

// CreateRoleHandler creates a role owned by the caller's school.
func CreateRoleHandler(c *gin.Context) {
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if reservedRoleNames[input.Name] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role name is reserved"})
		return
	}

	schoolID := currentSchoolID(c)
	role := models.Role{
		SchoolID:    &schoolID,
		Name:        input.Name,
		Description: input.Description,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		if len(input.PermissionIDs) > 0 {
			var permissions []models.Permission
			if err := tx.Where("id IN ?", input.PermissionIDs).Find(&permissions).Error; err != nil {
				return err
			}
			return tx.Model(&role).Association("Permissions").Replace(permissions)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create role"})
		return
	}

	c.JSON(http.StatusCreated, role)
}

// UpdateRoleHandler updates a role's description and permission set. Only the
// owning school can change a role; the shared built-in roles read as not
// found here.
func UpdateRoleHandler(c *gin.Context) {
	var role models.Role
	err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).First(&role).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if reservedRoleNames[input.Name] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role name is reserved"})
		return
	}

	role.Name = input.Name
	role.Description = input.Description

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&role).Error; err != nil {
			return err
		}
		var permissions []models.Permission
		if len(input.PermissionIDs) > 0 {
			if err := tx.Where("id IN ?", input.PermissionIDs).Find(&permissions).Error; err != nil {
				return err
			}
		}
		return tx.Model(&role).Association("Permissions").Replace(permissions)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update role"})
		return
	}

	c.JSON(http.StatusOK, role)
}

// DeleteRoleHandler removes one of the school's own roles once it is no
// longer assigned to anyone. Built-in roles cannot be deleted.
func DeleteRoleHandler(c *gin.Context) {
	var role models.Role
	err := config.DB.Where("id = ? AND school_id = ?", c.Param("id"), currentSchoolID(c)).First(&role).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	var assigned int64
	config.DB.Table("user_roles").Where("role_id = ?", role.ID).Count(&assigned)
	if assigned > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Role is still assigned to users"})
		return
	}

	if err := config.DB.Select("Permissions").Delete(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role deleted"})
}

// ListPermissionsHandler returns the permission catalog grouped by category.
func ListPermissionsHandler(c *gin.Context) {
	var permissions []models.Permission
	if err := config.DB.Order("category asc, name asc").Find(&permissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch permissions"})
		return
	}

	grouped := make(map[string][]models.Permission)
	for _, permission := range permissions {
		grouped[permission.Category] = append(grouped[permission.Category], permission)
	}
	c.JSON(http.StatusOK, grouped)
}
