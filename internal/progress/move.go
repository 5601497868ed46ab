package progress

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// Move is one requested card move within a batch. Version is the card's
// updated_at as the client last saw it.
type Move struct {
	CardID   uint      `json:"cardId" binding:"required"`
	Status   string    `json:"status" binding:"required"`
	Position int       `json:"position"`
	Version  time.Time `json:"version" binding:"required"`
}

// MoveFailure is one rejected move inside a batch result.
type MoveFailure struct {
	CardID  uint   `json:"cardId"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// BatchResult reports per-item outcomes of a batch move.
type BatchResult struct {
	Updated []models.LessonProgressCard `json:"updated"`
	Failed  []MoveFailure               `json:"failed"`
}

// ExecuteBatchMove applies each move independently, in caller order. A
// failing item is recorded and never aborts or rolls back its siblings: a
// drag-and-drop batch where one card went stale should not discard the other
// nine moves. The whole call only errors on I/O failure, never on conflicts.
//
// Moves touch only the actor's own cards. Positions are meaningful per board,
// so a card belonging to another teacher reads as not found here even when it
// sits in the same school.
func (co *Coordinator) ExecuteBatchMove(moves []Move, schoolID, actor uint) BatchResult {
	result := BatchResult{
		Updated: make([]models.LessonProgressCard, 0, len(moves)),
		Failed:  make([]MoveFailure, 0),
	}

	for _, move := range moves {
		card, err := co.applyMove(move, schoolID, actor)
		if err != nil {
			result.Failed = append(result.Failed, MoveFailure{
				CardID:  move.CardID,
				Code:    ErrorCode(err),
				Message: err.Error(),
			})
			continue
		}
		result.Updated = append(result.Updated, *card)
	}
	return result
}

func (co *Coordinator) applyMove(move Move, schoolID, actor uint) (*models.LessonProgressCard, error) {
	if !models.ValidProgressStatus(move.Status) {
		return nil, fmt.Errorf("unknown progress status %q", move.Status)
	}

	var card models.LessonProgressCard
	if err := co.DB.Where("id = ? AND school_id = ? AND teacher_id = ?", move.CardID, schoolID, actor).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}

	if err := CheckMove(&card, move.Version, actor, co.Now(), co.TTL); err != nil {
		return nil, err
	}

	// The UPDATE is guarded by the updated_at the check ran against, so a
	// concurrent writer who persists first makes this side observe the
	// conflict instead of overwriting it.
	res := co.DB.Model(&models.LessonProgressCard{}).
		Where("id = ? AND school_id = ? AND teacher_id = ? AND updated_at = ?", card.ID, schoolID, actor, card.UpdatedAt).
		Updates(map[string]interface{}{
			"status":     move.Status,
			"position":   move.Position,
			"updated_by": actor,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &VersionConflictError{CardID: card.ID, UpdatedAt: card.UpdatedAt}
	}

	if err := co.DB.First(&card, card.ID).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// ReorderColumn rewrites positions 0..n-1 for one status column on the
// actor's own board, matching the given id order. Ids outside the actor's
// school/board/column scope are skipped; the caller gets the count of rows
// actually updated.
func (co *Coordinator) ReorderColumn(ids []uint, status string, schoolID, actor uint) (int64, error) {
	if !models.ValidProgressStatus(status) {
		return 0, fmt.Errorf("unknown progress status %q", status)
	}

	var updated int64
	err := co.DB.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.LessonProgressCard{}).
				Where("id = ? AND school_id = ? AND teacher_id = ? AND status = ?", id, schoolID, actor, status).
				Updates(map[string]interface{}{"position": i, "updated_by": actor})
			if res.Error != nil {
				return res.Error
			}
			updated += res.RowsAffected
		}
		return nil
	})
	return updated, err
}
