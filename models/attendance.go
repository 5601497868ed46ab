package models

import (
	"time"

	"gorm.io/gorm"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

// Attendance is one child's attendance entry for one day. One row per child
// per date, upserted when a teacher corrects the morning register.
type Attendance struct {
	gorm.Model
	SchoolID uint      `json:"schoolId" gorm:"not null;index"`
	ChildID  uint      `json:"childId" gorm:"not null;uniqueIndex:idx_attendance_child_date"`
	Date     time.Time `json:"date" gorm:"not null;uniqueIndex:idx_attendance_child_date"`
	Status   string    `json:"status" gorm:"not null"`
	NotedBy  uint      `json:"notedBy"`
	Note     string    `json:"note"`

	Child *Child `json:"child,omitempty" gorm:"foreignKey:ChildID"`
}
