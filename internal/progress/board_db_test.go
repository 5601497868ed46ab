package progress

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// openTestDB gives each test its own in-memory database. The pool is pinned
// to one connection because every sqlite ":memory:" connection is a separate
// database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.LessonProgressCard{}))
	return db
}

func seedCard(t *testing.T, db *gorm.DB, schoolID, teacherID uint, status string, position int) *models.LessonProgressCard {
	t.Helper()
	card := &models.LessonProgressCard{
		SchoolID:    schoolID,
		TeacherID:   teacherID,
		ChildID:     1,
		LessonTitle: "Pink tower",
		Status:      status,
		Position:    position,
		UpdatedBy:   teacherID,
	}
	require.NoError(t, db.Create(card).Error)
	require.NoError(t, db.First(card, card.ID).Error)
	return card
}

func TestExecuteBatchMoveMixedResults(t *testing.T) {
	db := openTestDB(t)
	co := NewCoordinator(db, testTTL)

	fresh := seedCard(t, db, 1, 7, models.ProgressPlanned, 0)
	stale := seedCard(t, db, 1, 7, models.ProgressPlanned, 1)

	moves := []Move{
		{CardID: fresh.ID, Status: models.ProgressPresented, Position: 0, Version: fresh.UpdatedAt},
		{CardID: stale.ID, Status: models.ProgressPresented, Position: 1, Version: stale.UpdatedAt.Add(-time.Second)},
	}
	result := co.ExecuteBatchMove(moves, 1, 7)

	require.Len(t, result.Updated, 1)
	assert.Equal(t, fresh.ID, result.Updated[0].ID)
	assert.Equal(t, models.ProgressPresented, result.Updated[0].Status)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, stale.ID, result.Failed[0].CardID)
	assert.Equal(t, "version_conflict", result.Failed[0].Code)

	// The conflicting card keeps its column.
	var kept models.LessonProgressCard
	require.NoError(t, db.First(&kept, stale.ID).Error)
	assert.Equal(t, models.ProgressPlanned, kept.Status)
}

func TestExecuteBatchMoveOtherTeachersCard(t *testing.T) {
	db := openTestDB(t)
	co := NewCoordinator(db, testTTL)

	mine := seedCard(t, db, 1, 7, models.ProgressPlanned, 0)
	colleague := seedCard(t, db, 1, 8, models.ProgressPlanned, 0)

	moves := []Move{
		{CardID: mine.ID, Status: models.ProgressPresented, Position: 0, Version: mine.UpdatedAt},
		{CardID: colleague.ID, Status: models.ProgressMastered, Position: 0, Version: colleague.UpdatedAt},
	}
	result := co.ExecuteBatchMove(moves, 1, 7)

	require.Len(t, result.Updated, 1)
	assert.Equal(t, mine.ID, result.Updated[0].ID)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, colleague.ID, result.Failed[0].CardID)
	assert.Equal(t, "card_not_found", result.Failed[0].Code)

	var untouched models.LessonProgressCard
	require.NoError(t, db.First(&untouched, colleague.ID).Error)
	assert.Equal(t, models.ProgressPlanned, untouched.Status)
}

func TestAcquireContention(t *testing.T) {
	db := openTestDB(t)
	co := NewCoordinator(db, testTTL)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	co.Now = func() time.Time { return base }

	card := seedCard(t, db, 1, 7, models.ProgressPlanned, 0)

	locked, err := co.Acquire(card.ID, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, locked.LockedBy)
	assert.Equal(t, uint(7), *locked.LockedBy)

	// Taking a lock must not move the optimistic version.
	assert.True(t, locked.UpdatedAt.Equal(card.UpdatedAt))

	// A second teacher is refused while the lock is live.
	_, err = co.Acquire(card.ID, 1, 8)
	var conflict *LockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint(7), conflict.HolderID)

	// The holder may refresh their own lock.
	_, err = co.Acquire(card.ID, 1, 7)
	require.NoError(t, err)

	// Past the TTL the lock is up for grabs.
	co.Now = func() time.Time { return base.Add(testTTL) }
	taken, err := co.Acquire(card.ID, 1, 8)
	require.NoError(t, err)
	require.NotNil(t, taken.LockedBy)
	assert.Equal(t, uint(8), *taken.LockedBy)
}

func TestAcquireMissingCard(t *testing.T) {
	db := openTestDB(t)
	co := NewCoordinator(db, testTTL)

	_, err := co.Acquire(99, 1, 7)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestReorderColumnScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	co := NewCoordinator(db, testTTL)

	first := seedCard(t, db, 1, 7, models.ProgressPlanned, 0)
	second := seedCard(t, db, 1, 7, models.ProgressPlanned, 1)
	colleague := seedCard(t, db, 1, 8, models.ProgressPlanned, 0)

	// The colleague's id is smuggled into the middle of the ordering.
	updated, err := co.ReorderColumn([]uint{second.ID, colleague.ID, first.ID}, models.ProgressPlanned, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	var reordered models.LessonProgressCard
	require.NoError(t, db.First(&reordered, second.ID).Error)
	assert.Equal(t, 0, reordered.Position)

	reordered = models.LessonProgressCard{}
	require.NoError(t, db.First(&reordered, first.ID).Error)
	assert.Equal(t, 2, reordered.Position)

	// The colleague's board keeps its own ordering.
	reordered = models.LessonProgressCard{}
	require.NoError(t, db.First(&reordered, colleague.ID).Error)
	assert.Equal(t, 0, reordered.Position)
}
