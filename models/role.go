package models

// Role defines a named bundle of permissions. The seeded "admin" and
// "teacher" roles carry a NULL SchoolID: they are shared by every school and
// no school can rename or delete them. Roles created through the API belong
// to the creating school and are invisible to other tenants.
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	SchoolID    *uint        `json:"schoolId" gorm:"index;uniqueIndex:idx_roles_school_name"`
	Name        string       `json:"name" gorm:"not null;uniqueIndex:idx_roles_school_name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions;"`
}

// IsBuiltIn reports whether the role is part of the shared seeded set.
func (r *Role) IsBuiltIn() bool {
	return r.SchoolID == nil
}
