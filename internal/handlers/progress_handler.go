package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/progress"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// lockCoordinator builds the coordinator against the shared DB handle with
// the configured TTL.
func lockCoordinator() *progress.Coordinator {
	return progress.NewCoordinator(config.DB, config.LockTTL)
}

func respondCoordinatorError(c *gin.Context, err error) {
	code := progress.ErrorCode(err)
	switch code {
	case "card_not_found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found", "code": code})
	case "lock_conflict":
		var conflict *progress.LockConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     err.Error(),
				"code":      code,
				"holderId":  conflict.HolderID,
				"expiresAt": conflict.ExpiresAt,
			})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": code})
	case "version_conflict", "not_lock_holder":
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": code})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": code})
	}
}

// GetProgressBoardHandler returns the board's cards grouped by column. By
// default the caller sees their own board; ?teacherId= lets staff view a
// colleague's board within the same school.
func GetProgressBoardHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)
	teacherID := currentUserID(c)
	if t := c.Query("teacherId"); t != "" {
		var other models.User
		if err := config.DB.Where("id = ? AND school_id = ?", t, schoolID).First(&other).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
			return
		}
		teacherID = other.ID
	}

	var cards []models.LessonProgressCard
	err := config.DB.Preload("Child").
		Where("school_id = ? AND teacher_id = ?", schoolID, teacherID).
		Order("status asc, position asc").
		Find(&cards).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch board"})
		return
	}

	columns := map[string][]models.LessonProgressCard{
		models.ProgressPlanned:    {},
		models.ProgressPresented:  {},
		models.ProgressPracticing: {},
		models.ProgressMastered:   {},
	}
	for _, card := range cards {
		columns[card.Status] = append(columns[card.Status], card)
	}

	c.JSON(http.StatusOK, gin.H{"teacherId": teacherID, "columns": columns})
}

// ProgressCardInput creates a card on the caller's board.
type ProgressCardInput struct {
	ChildID     uint   `json:"childId" binding:"required"`
	LessonTitle string `json:"lessonTitle" binding:"required"`
	LessonArea  string `json:"lessonArea"`
	Status      string `json:"status"`
}

// CreateProgressCardHandler adds a card at the end of its column.
func CreateProgressCardHandler(c *gin.Context) {
	var input ProgressCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schoolID := currentSchoolID(c)
	teacherID := currentUserID(c)

	status := input.Status
	if status == "" {
		status = models.ProgressPlanned
	}
	if !models.ValidProgressStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown progress status"})
		return
	}

	var child models.Child
	if err := config.DB.Where("id = ? AND school_id = ?", input.ChildID, schoolID).First(&child).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Child not found"})
		return
	}

	var maxPosition int64
	config.DB.Model(&models.LessonProgressCard{}).
		Where("school_id = ? AND teacher_id = ? AND status = ?", schoolID, teacherID, status).
		Count(&maxPosition)

	card := models.LessonProgressCard{
		SchoolID:    schoolID,
		TeacherID:   teacherID,
		ChildID:     input.ChildID,
		LessonTitle: input.LessonTitle,
		LessonArea:  input.LessonArea,
		Status:      status,
		Position:    int(maxPosition),
		UpdatedBy:   teacherID,
	}
	if err := config.DB.Create(&card).Error; err != nil {
		slog.Error("Failed to create progress card", "error", err, "school_id", schoolID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create card"})
		return
	}

	c.JSON(http.StatusCreated, card)
}

// AcquireCardLockHandler takes or refreshes the advisory edit lock on a card.
func AcquireCardLockHandler(c *gin.Context) {
	cardID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	card, err := lockCoordinator().Acquire(cardID, currentSchoolID(c), currentUserID(c))
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}

	GlobalBoardHub.BroadcastBoardEvent(card.SchoolID, BoardEvent{Type: "cardLocked", Card: card})
	c.JSON(http.StatusOK, card)
}

// ReleaseCardLockHandler releases the caller's lock on a card.
func ReleaseCardLockHandler(c *gin.Context) {
	cardID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := lockCoordinator().Release(cardID, currentSchoolID(c), currentUserID(c)); err != nil {
		respondCoordinatorError(c, err)
		return
	}

	GlobalBoardHub.BroadcastBoardEvent(currentSchoolID(c), BoardEvent{Type: "cardUnlocked", CardID: cardID})
	c.JSON(http.StatusOK, gin.H{"message": "Lock released"})
}

// BatchMoveInput is the drag-and-drop payload: every move carries the
// client's last-seen version of the card.
type BatchMoveInput struct {
	Moves []progress.Move `json:"moves" binding:"required,min=1,dive"`
}

// BatchMoveHandler applies the moves best-effort and reports per-item
// results. Individual conflicts come back inside the 200 body, never as an
// HTTP-level failure for the whole batch.
func BatchMoveHandler(c *gin.Context) {
	var input BatchMoveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := lockCoordinator().ExecuteBatchMove(input.Moves, currentSchoolID(c), currentUserID(c))

	if len(result.Updated) > 0 {
		GlobalBoardHub.BroadcastBoardEvent(currentSchoolID(c), BoardEvent{Type: "cardsMoved", Cards: result.Updated})
	}
	c.JSON(http.StatusOK, result)
}

// ReorderColumnInput lists a column's card ids in the desired order.
type ReorderColumnInput struct {
	Status  string `json:"status" binding:"required"`
	CardIDs []uint `json:"cardIds" binding:"required"`
}

// ReorderColumnHandler rewrites positions within one column. Ids that fell
// out of the column since the client loaded it are skipped, not failed.
func ReorderColumnHandler(c *gin.Context) {
	var input ReorderColumnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := lockCoordinator().ReorderColumn(input.CardIDs, input.Status, currentSchoolID(c), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requested": len(input.CardIDs), "updated": updated})
}
