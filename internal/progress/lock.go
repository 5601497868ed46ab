// Package progress coordinates concurrent edits to the lesson progress board.
//
// Cards carry an advisory lock (locked_by/locked_at columns) with a TTL, plus
// an optimistic version check against updated_at during batch moves. Nothing
// blocks in-process: all lock state lives in the card row itself, so the
// rules hold across application instances.
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// Coordinator applies the lock and move rules against the database. Now is
// swappable for tests.
type Coordinator struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

func NewCoordinator(db *gorm.DB, ttl time.Duration) *Coordinator {
	return &Coordinator{DB: db, TTL: ttl, Now: time.Now}
}

// holderAt returns the binding lock holder, if any. A lock whose age reached
// the TTL is treated as released even though the columns still hold stale
// values.
func holderAt(lockedBy *uint, lockedAt *time.Time, now time.Time, ttl time.Duration) (uint, bool) {
	if lockedBy == nil || lockedAt == nil {
		return 0, false
	}
	if now.Sub(*lockedAt) >= ttl {
		return 0, false
	}
	return *lockedBy, true
}

// CheckAcquire decides whether actor may take the card's lock at now.
// Re-acquiring one's own unexpired lock is allowed (refresh); an expired lock
// held by anyone may be taken over.
func CheckAcquire(card *models.LessonProgressCard, actor uint, now time.Time, ttl time.Duration) error {
	holder, held := holderAt(card.LockedBy, card.LockedAt, now, ttl)
	if held && holder != actor {
		return &LockConflictError{CardID: card.ID, HolderID: holder, ExpiresAt: card.LockedAt.Add(ttl)}
	}
	return nil
}

// CheckRelease decides whether actor may release the card's lock at now.
// Releasing a card that is not (bindingly) locked is a no-op, not an error.
func CheckRelease(card *models.LessonProgressCard, actor uint, now time.Time, ttl time.Duration) error {
	holder, held := holderAt(card.LockedBy, card.LockedAt, now, ttl)
	if held && holder != actor {
		return &NotLockHolderError{CardID: card.ID, HolderID: holder}
	}
	return nil
}

// CheckMove runs the batch-move admission checks for one card: the optimistic
// version check first, then the lock check against holders other than actor.
func CheckMove(card *models.LessonProgressCard, version time.Time, actor uint, now time.Time, ttl time.Duration) error {
	if card.UpdatedAt.After(version) {
		return &VersionConflictError{CardID: card.ID, UpdatedAt: card.UpdatedAt}
	}
	holder, held := holderAt(card.LockedBy, card.LockedAt, now, ttl)
	if held && holder != actor {
		return &LockConflictError{CardID: card.ID, HolderID: holder, ExpiresAt: card.LockedAt.Add(ttl)}
	}
	return nil
}

// Acquire takes or refreshes the advisory lock on a card. The take-over is a
// single conditional UPDATE on the expiry predicate, so two concurrent
// acquire attempts cannot both win a read-then-write race. The SQL predicate
// mirrors holderAt exactly: a lock whose age reached the TTL is free.
//
// Lock columns are written with UpdateColumns: taking a lock must not bump
// updated_at, or every acquire would invalidate other clients' versions.
func (co *Coordinator) Acquire(cardID, schoolID, actor uint) (*models.LessonProgressCard, error) {
	now := co.Now()
	cutoff := now.Add(-co.TTL)

	res := co.DB.Model(&models.LessonProgressCard{}).
		Where("id = ? AND school_id = ?", cardID, schoolID).
		Where("locked_by IS NULL OR locked_by = ? OR locked_at <= ?", actor, cutoff).
		UpdateColumns(map[string]interface{}{"locked_by": actor, "locked_at": now})
	if res.Error != nil {
		return nil, res.Error
	}

	var card models.LessonProgressCard
	if err := co.DB.Where("id = ? AND school_id = ?", cardID, schoolID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}

	if res.RowsAffected == 0 {
		if err := CheckAcquire(&card, actor, now, co.TTL); err != nil {
			return nil, err
		}
		// The lock was freed between the UPDATE and the read; the retry
		// either wins cleanly or reports whoever beat us to it.
		return co.Acquire(cardID, schoolID, actor)
	}
	return &card, nil
}

// Release drops the lock when actor holds it (or when it is already
// stale/absent). The clearing UPDATE is guarded by locked_by so a concurrent
// take-over is never clobbered.
func (co *Coordinator) Release(cardID, schoolID, actor uint) error {
	var card models.LessonProgressCard
	if err := co.DB.Where("id = ? AND school_id = ?", cardID, schoolID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCardNotFound
		}
		return err
	}

	if err := CheckRelease(&card, actor, co.Now(), co.TTL); err != nil {
		return err
	}
	if card.LockedBy == nil {
		return nil
	}

	return co.DB.Model(&models.LessonProgressCard{}).
		Where("id = ? AND locked_by = ?", cardID, *card.LockedBy).
		UpdateColumns(map[string]interface{}{"locked_by": nil, "locked_at": nil}).Error
}

// ReleaseAllHeldBy clears every lock a user holds, across all cards. Called
// on logout; no TTL check is needed for an explicit release.
func (co *Coordinator) ReleaseAllHeldBy(userID uint) (int64, error) {
	res := co.DB.Model(&models.LessonProgressCard{}).
		Where("locked_by = ?", userID).
		UpdateColumns(map[string]interface{}{"locked_by": nil, "locked_at": nil})
	return res.RowsAffected, res.Error
}

// SweepExpired clears all locks past the TTL. Idempotent and safe to run
// concurrently with acquire attempts, since Acquire re-checks expiry itself.
func (co *Coordinator) SweepExpired() (int64, error) {
	cutoff := co.Now().Add(-co.TTL)
	res := co.DB.Model(&models.LessonProgressCard{}).
		Where("locked_by IS NOT NULL AND locked_at <= ?", cutoff).
		UpdateColumns(map[string]interface{}{"locked_by": nil, "locked_at": nil})
	return res.RowsAffected, res.Error
}
