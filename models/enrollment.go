package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses. A child has at most one ACTIVE enrollment per school;
// the constraint is enforced at creation time. ARCHIVED enrollments are
// immutable.
const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentWithdrawn = "WITHDRAWN"
	EnrollmentInactive  = "INACTIVE"
	EnrollmentArchived  = "ARCHIVED"
)

// Enrollment ties a child to a school for a coverage period.
//
// MonthlyFeeOverrideMinor, when set, replaces the child's default fee for this
// enrollment. NULL means "use the child default"; it is distinct from an
// explicit 0 override (a free enrollment).
type Enrollment struct {
	gorm.Model
	SchoolID uint  `json:"schoolId" gorm:"not null;index"`
	ChildID  uint  `json:"childId" gorm:"not null;index"`
	GroupID  *uint `json:"groupId"`

	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Status    string     `json:"status" gorm:"default:'ACTIVE'"`

	MonthlyFeeOverrideMinor *int64 `json:"monthlyFeeOverrideMinor"`

	Child *Child `json:"child,omitempty" gorm:"foreignKey:ChildID"`
	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// IsMutable reports whether the enrollment may still be edited.
func (e *Enrollment) IsMutable() bool {
	return e.Status != EnrollmentArchived
}
