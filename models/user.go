package models

import "gorm.io/gorm"

// User represents a staff account (administrator or teacher) within a school.
type User struct {
	gorm.Model
	SchoolID uint   `json:"schoolId" gorm:"not null;index"`
	Login    string `json:"login" gorm:"unique;not null"`
	Email    string `json:"email" gorm:"unique;not null"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Password string `json:"-"`
	Status   string `json:"status" gorm:"default:'active'"`
	Roles    []Role `json:"roles" gorm:"many2many:user_roles;"`

	School *School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}
