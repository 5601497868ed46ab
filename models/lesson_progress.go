package models

import (
	"time"

	"gorm.io/gorm"
)

// Progress board columns, in curriculum order.
const (
	ProgressPlanned    = "planned"
	ProgressPresented  = "presented"
	ProgressPracticing = "practicing"
	ProgressMastered   = "mastered"
)

// ValidProgressStatus reports whether s names a board column.
func ValidProgressStatus(s string) bool {
	switch s {
	case ProgressPlanned, ProgressPresented, ProgressPracticing, ProgressMastered:
		return true
	}
	return false
}

// LessonProgressCard is one card on a teacher's lesson progress board: a
// child/lesson pair sitting in a status column at a position.
//
// LockedBy/LockedAt record an advisory edit lock. The lock is binding only
// while now - LockedAt < the configured TTL; stale values are ignored by
// every acquire attempt and cleared by the periodic sweep. UpdatedAt doubles
// as the optimistic-concurrency version checked during batch moves.
type LessonProgressCard struct {
	gorm.Model
	SchoolID  uint `json:"schoolId" gorm:"not null;index"`
	TeacherID uint `json:"teacherId" gorm:"not null;index"`
	ChildID   uint `json:"childId" gorm:"not null"`

	LessonTitle string `json:"lessonTitle" gorm:"not null"`
	LessonArea  string `json:"lessonArea"` // e.g. "sensorial", "practical life"
	Status      string `json:"status" gorm:"default:'planned'"`
	Position    int    `json:"position" gorm:"default:0"`

	LockedBy  *uint      `json:"lockedBy"`
	LockedAt  *time.Time `json:"lockedAt"`
	UpdatedBy uint       `json:"updatedBy"`

	Child *Child `json:"child,omitempty" gorm:"foreignKey:ChildID"`
}
