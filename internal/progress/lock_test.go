package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

const testTTL = 5 * time.Minute

func lockedCard(holder uint, at time.Time) *models.LessonProgressCard {
	return &models.LessonProgressCard{
		Model:    gorm.Model{ID: 7},
		LockedBy: &holder,
		LockedAt: &at,
	}
}

func TestCheckAcquire(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		card     *models.LessonProgressCard
		actor    uint
		now      time.Time
		wantErr  bool
	}{
		{name: "unlocked card", card: &models.LessonProgressCard{}, actor: 2, now: base},
		{name: "holder refreshes own lock", card: lockedCard(1, base), actor: 1, now: base.Add(time.Minute)},
		{name: "second user before expiry", card: lockedCard(1, base), actor: 2, now: base.Add(time.Minute), wantErr: true},
		{name: "second user exactly at expiry", card: lockedCard(1, base), actor: 2, now: base.Add(testTTL)},
		{name: "second user after expiry", card: lockedCard(1, base), actor: 2, now: base.Add(6 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAcquire(tt.card, tt.actor, tt.now, testTTL)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var conflict *LockConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, uint(1), conflict.HolderID)
			assert.Equal(t, base.Add(testTTL), conflict.ExpiresAt)
		})
	}
}

func TestCheckRelease(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Holder releases their own lock.
	assert.NoError(t, CheckRelease(lockedCard(1, base), 1, base.Add(time.Minute), testTTL))

	// Someone else cannot release an unexpired lock.
	err := CheckRelease(lockedCard(1, base), 2, base.Add(time.Minute), testTTL)
	var notHolder *NotLockHolderError
	require.ErrorAs(t, err, &notHolder)
	assert.Equal(t, uint(1), notHolder.HolderID)

	// An expired lock is as good as released already.
	assert.NoError(t, CheckRelease(lockedCard(1, base), 2, base.Add(10*time.Minute), testTTL))

	// Releasing an unlocked card is a no-op.
	assert.NoError(t, CheckRelease(&models.LessonProgressCard{}, 2, base, testTTL))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "card_not_found", ErrorCode(ErrCardNotFound))
	assert.Equal(t, "lock_conflict", ErrorCode(&LockConflictError{}))
	assert.Equal(t, "version_conflict", ErrorCode(&VersionConflictError{}))
	assert.Equal(t, "not_lock_holder", ErrorCode(&NotLockHolderError{}))
	assert.Equal(t, "invalid_move", ErrorCode(assert.AnError))
}
