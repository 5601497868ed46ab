package models

import "gorm.io/gorm"

// Group is a Montessori classroom group (e.g. "Casa dei Bambini 3-6") with a
// lead teacher responsible for its children.
type Group struct {
	gorm.Model
	SchoolID  uint   `json:"schoolId" gorm:"not null;index"`
	Name      string `json:"name" gorm:"not null"`
	AgeRange  string `json:"ageRange"` // e.g. "3-6"
	TeacherID *uint  `json:"teacherId"`

	Teacher *User `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}
