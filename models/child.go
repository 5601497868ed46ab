package models

import (
	"time"

	"gorm.io/gorm"
)

// Child represents a child profile within a school.
//
// MonthlyFeeMinor is the default monthly fee in minor currency units (bani);
// it applies to any enrollment that does not carry its own override. All fee
// amounts are stored as integers in minor units, conversion to RON happens
// only at the API boundary.
//
// Children are never hard-deleted: deactivation flips Status so historical
// attendance and billing stay intact.
type Child struct {
	gorm.Model
	SchoolID uint `json:"schoolId" gorm:"not null;index"`

	FirstName string     `json:"firstName" gorm:"not null"`
	LastName  string     `json:"lastName" gorm:"not null"`
	Gender    string     `json:"gender"`
	BirthDate *time.Time `json:"birthDate"`

	ParentName  string `json:"parentName"`
	ParentPhone string `json:"parentPhone"`
	ParentEmail string `json:"parentEmail"`
	HomeAddress string `json:"homeAddress"`
	MedicalInfo string `json:"medicalInfo"`
	Comments    string `json:"comments"`

	MonthlyFeeMinor int64  `json:"monthlyFeeMinor" gorm:"not null;default:0"`
	Status          string `json:"status" gorm:"default:'active'"`

	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:ChildID"`
}
