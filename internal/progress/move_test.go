package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

func TestCheckMove(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	holder := uint(1)

	t.Run("fresh version and no lock", func(t *testing.T) {
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base}}
		assert.NoError(t, CheckMove(c, base, 2, base.Add(time.Minute), testTTL))
	})

	t.Run("stale version rejected", func(t *testing.T) {
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base.Add(time.Second)}}
		err := CheckMove(c, base, 2, base.Add(time.Minute), testTTL)
		var conflict *VersionConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, uint(42), conflict.CardID)
	})

	t.Run("lock held by another user rejected", func(t *testing.T) {
		at := base
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base}, LockedBy: &holder, LockedAt: &at}
		err := CheckMove(c, base, 2, base.Add(time.Minute), testTTL)
		var conflict *LockConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, holder, conflict.HolderID)
	})

	t.Run("actor moving their own locked card", func(t *testing.T) {
		at := base
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base}, LockedBy: &holder, LockedAt: &at}
		assert.NoError(t, CheckMove(c, base, holder, base.Add(time.Minute), testTTL))
	})

	t.Run("expired lock does not block a move", func(t *testing.T) {
		at := base
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base}, LockedBy: &holder, LockedAt: &at}
		assert.NoError(t, CheckMove(c, base, 2, base.Add(10*time.Minute), testTTL))
	})

	t.Run("version check runs before lock check", func(t *testing.T) {
		at := base
		c := &models.LessonProgressCard{Model: gorm.Model{ID: 42, UpdatedAt: base.Add(time.Second)}, LockedBy: &holder, LockedAt: &at}
		err := CheckMove(c, base, 2, base.Add(time.Minute), testTTL)
		var conflict *VersionConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}
