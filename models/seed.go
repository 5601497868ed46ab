package models

import "gorm.io/gorm"

// defaultPermissions is the permission catalog checked by the route
// middleware. Seeding is idempotent; renames require a migration.
var defaultPermissions = []Permission{
	{Name: "children_view", Category: "Children", Description: "View child profiles"},
	{Name: "children_create", Category: "Children", Description: "Create child profiles"},
	{Name: "children_edit", Category: "Children", Description: "Edit child profiles and fees"},
	{Name: "children_delete", Category: "Children", Description: "Deactivate children"},
	{Name: "enrollments_view", Category: "Enrollments", Description: "View enrollments"},
	{Name: "enrollments_create", Category: "Enrollments", Description: "Create enrollments"},
	{Name: "enrollments_edit", Category: "Enrollments", Description: "Edit enrollments and fee overrides"},
	{Name: "billing_view", Category: "Billing", Description: "View resolved fees"},
	{Name: "groups_view", Category: "Groups", Description: "View classroom groups"},
	{Name: "groups_edit", Category: "Groups", Description: "Manage classroom groups"},
	{Name: "attendance_view", Category: "Attendance", Description: "View attendance"},
	{Name: "attendance_edit", Category: "Attendance", Description: "Mark attendance"},
	{Name: "progress_view", Category: "Progress", Description: "View lesson progress boards"},
	{Name: "progress_edit", Category: "Progress", Description: "Move and edit progress cards"},
	{Name: "reports_view", Category: "Reports", Description: "Export reports"},
	{Name: "users_view", Category: "Users", Description: "View staff accounts"},
	{Name: "users_create", Category: "Users", Description: "Create staff accounts"},
	{Name: "users_edit", Category: "Users", Description: "Edit staff accounts"},
	{Name: "users_delete", Category: "Users", Description: "Deactivate staff accounts"},
	{Name: "roles_view", Category: "Roles", Description: "View roles and permissions"},
	{Name: "roles_edit", Category: "Roles", Description: "Manage roles"},
}

// teacherPermissions is what the built-in teacher role can do.
var teacherPermissions = []string{
	"children_view",
	"groups_view",
	"attendance_view", "attendance_edit",
	"progress_view", "progress_edit",
}

// SeedRBAC ensures the permission catalog and the built-in admin and teacher
// roles exist. Admin carries no explicit permissions: the middleware lets the
// admin role through every check.
func SeedRBAC(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, permission := range defaultPermissions {
			if err := tx.Where(Permission{Name: permission.Name}).
				FirstOrCreate(&permission).Error; err != nil {
				return err
			}
		}

		// Built-in roles are the rows with a NULL school id; the predicate
		// keeps the seed from ever matching a tenant-created role.
		var admin Role
		if err := tx.Where("name = ? AND school_id IS NULL", "admin").
			Attrs(Role{Name: "admin", Description: "Full access to the school"}).
			FirstOrCreate(&admin).Error; err != nil {
			return err
		}

		var teacher Role
		if err := tx.Where("name = ? AND school_id IS NULL", "teacher").
			Attrs(Role{Name: "teacher", Description: "Classroom staff"}).
			FirstOrCreate(&teacher).Error; err != nil {
			return err
		}

		var perms []Permission
		if err := tx.Where("name IN ?", teacherPermissions).Find(&perms).Error; err != nil {
			return err
		}
		return tx.Model(&teacher).Association("Permissions").Replace(perms)
	})
}
