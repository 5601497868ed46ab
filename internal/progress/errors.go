package progress

import (
	"errors"
	"fmt"
	"time"
)

// ErrCardNotFound covers both a missing card and a card outside the caller's
// school. The two are deliberately indistinguishable so cross-tenant probes
// learn nothing.
var ErrCardNotFound = errors.New("card not found")

// LockConflictError means another user holds an unexpired lock on the card.
type LockConflictError struct {
	CardID    uint
	HolderID  uint
	ExpiresAt time.Time
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("card %d is locked by user %d until %s", e.CardID, e.HolderID, e.ExpiresAt.Format(time.RFC3339))
}

// VersionConflictError means the card changed on the server after the client
// last read it; the move is surfaced to the caller instead of silently
// overwriting the newer change.
type VersionConflictError struct {
	CardID    uint
	UpdatedAt time.Time
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("card %d was modified at %s, reload before moving it", e.CardID, e.UpdatedAt.Format(time.RFC3339))
}

// NotLockHolderError means a release was attempted by someone other than the
// current holder.
type NotLockHolderError struct {
	CardID   uint
	HolderID uint
}

func (e *NotLockHolderError) Error() string {
	return fmt.Sprintf("card %d is locked by another user", e.CardID)
}

// ErrorCode maps a coordinator error to the machine-readable code embedded in
// batch results and API bodies.
func ErrorCode(err error) string {
	var lockErr *LockConflictError
	var versionErr *VersionConflictError
	var holderErr *NotLockHolderError
	switch {
	case errors.Is(err, ErrCardNotFound):
		return "card_not_found"
	case errors.As(err, &versionErr):
		return "version_conflict"
	case errors.As(err, &lockErr):
		return "lock_conflict"
	case errors.As(err, &holderErr):
		return "not_lock_holder"
	default:
		return "invalid_move"
	}
}
