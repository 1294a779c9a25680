package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"timetracker/internal/clock"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTaskService(t *testing.T, clk clock.Clock, autoStart bool) (*TaskService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	return NewTaskService(db, taskRepo, userRepo, clk, autoStart), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := model.NewUser(username, "secret", "Test", "User")
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedTask(t *testing.T, db *gorm.DB, user *model.User, description string, startedAt, finishedAt *time.Time) *model.Task {
	t.Helper()
	task := model.NewFinishedTask(description, startedAt, finishedAt)
	if user != nil {
		user.AddTask(task)
	}
	require.NoError(t, repository.NewTaskRepository(db).Create(context.Background(), task))
	return task
}

func utc(day, hour, min int) *time.Time {
	ts := time.Date(2000, 1, day, hour, min, 0, 0, time.UTC)
	return &ts
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCreateTaskStartsTimer(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	user := seedUser(t, db, "alice")

	task, err := svc.CreateTask(context.Background(), "alice", "task X")
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, user.ID, *task.AssigneeID)
	require.NotNil(t, task.StartedAt)
	assert.Equal(t, clk.Instant, *task.StartedAt)
	assert.Nil(t, task.FinishedAt)
}

func TestCreateTaskWithoutAutoStart(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, false)
	seedUser(t, db, "alice")

	task, err := svc.CreateTask(context.Background(), "alice", "task X")
	require.NoError(t, err)
	assert.Nil(t, task.StartedAt)

	// The timer can be started separately later.
	require.NoError(t, svc.StartTime(context.Background(), task.ID))
	stored, err := repository.NewTaskRepository(db).FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.StartedAt)
}

func TestCreateTaskDuplicateDescription(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	seedUser(t, db, "alice")

	_, err := svc.CreateTask(context.Background(), "alice", "task X")
	require.NoError(t, err)

	_, err = svc.CreateTask(context.Background(), "alice", "task X")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTaskExists)
}

func TestCreateTaskUnknownUser(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTaskService(t, clk, true)

	_, err := svc.CreateTask(context.Background(), "nobody", "task X")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestStopTime(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	seedUser(t, db, "alice")

	task, err := svc.CreateTask(context.Background(), "alice", "task X")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	require.NoError(t, svc.StopTime(context.Background(), task.ID))

	stored, err := repository.NewTaskRepository(db).FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FinishedAt)
	assert.Equal(t, time.Hour, stored.Duration())

	// The second stop hits the state machine.
	err = svc.StopTime(context.Background(), task.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTaskNotRunning)
}

func TestStopTimeUnknownTask(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTaskService(t, clk, true)

	err := svc.StopTime(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestDeleteTask(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	seedUser(t, db, "alice")

	task, err := svc.CreateTask(context.Background(), "alice", "task X")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTask(context.Background(), task.ID))

	err = svc.DeleteTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestFindUserTasksExcludesRunning(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	bob := seedUser(t, db, "bob")
	seedTask(t, db, bob, "task A", utc(1, 12, 0), utc(1, 14, 30))
	seedTask(t, db, bob, "task B", utc(1, 15, 0), nil)

	tasks, err := svc.FindUserTasks(context.Background(), "bob", nil, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task A", tasks[0].Description)

	sum, err := svc.FindUserWorkTime(context.Background(), "bob", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour+30*time.Minute, sum)
}

func TestDateWindowExpandsInClockZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	clk := clock.NewFixed(time.Date(2000, 1, 5, 12, 0, 0, 0, loc))
	svc, db := newTaskService(t, clk, true)
	alice := seedUser(t, db, "alice")

	// 22:00Z on Jan 1 is already Jan 2 in UTC+3.
	seedTask(t, db, alice, "late evening", utc(1, 22, 0), utc(1, 23, 0))
	// 20:00Z on Jan 1 is 23:00 local, still Jan 1.
	seedTask(t, db, alice, "earlier", utc(1, 20, 0), utc(1, 20, 30))

	day := date(2000, time.January, 2)
	tasks, err := svc.FindUserIntervals(context.Background(), "alice", day, day)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "late evening", tasks[0].Description)
}

func TestClearUserTasksUnknownUserIsNoop(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTaskService(t, clk, true)

	assert.NoError(t, svc.ClearUserTasks(context.Background(), "nobody"))
}

func TestFinishAllTasksSkipsNeverStarted(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 18, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	alice := seedUser(t, db, "alice")
	running := seedTask(t, db, alice, "running", utc(1, 12, 0), nil)
	created := seedTask(t, db, alice, "never started", nil, nil)
	done := seedTask(t, db, alice, "done", utc(1, 10, 0), utc(1, 11, 0))

	require.NoError(t, svc.FinishAllTasks(context.Background()))

	taskRepo := repository.NewTaskRepository(db)
	stored, err := taskRepo.FindByID(context.Background(), running.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FinishedAt)
	assert.True(t, stored.FinishedAt.Equal(clk.Instant))

	stored, err = taskRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.StartedAt)
	assert.Nil(t, stored.FinishedAt)

	stored, err = taskRepo.FindByID(context.Background(), done.ID)
	require.NoError(t, err)
	assert.True(t, stored.FinishedAt.Equal(*utc(1, 11, 0)))
}

func TestDeleteOldTasks(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 18, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	alice := seedUser(t, db, "alice")
	expired := seedTask(t, db, alice, "expired", utc(1, 10, 0), utc(1, 12, 0))    // idle 6h
	fresh := seedTask(t, db, alice, "fresh", utc(1, 14, 0), utc(1, 15, 0))        // idle 3h
	unfinished := seedTask(t, db, alice, "unfinished", utc(1, 8, 0), nil)

	require.NoError(t, svc.DeleteOldTasks(context.Background(), 5*time.Hour))

	taskRepo := repository.NewTaskRepository(db)
	_, err := taskRepo.FindByID(context.Background(), expired.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)

	_, err = taskRepo.FindByID(context.Background(), fresh.ID)
	assert.NoError(t, err)

	_, err = taskRepo.FindByID(context.Background(), unfinished.ID)
	assert.NoError(t, err)
}

func TestDeleteOldTasksTTLBoundaryIsExclusive(t *testing.T) {
	clk := clock.NewFixed(time.Date(2000, 1, 1, 18, 0, 0, 0, time.UTC))
	svc, db := newTaskService(t, clk, true)
	alice := seedUser(t, db, "alice")
	// finished+ttl == now exactly: not strictly before, so it stays.
	boundary := seedTask(t, db, alice, "boundary", utc(1, 12, 0), utc(1, 13, 0))

	require.NoError(t, svc.DeleteOldTasks(context.Background(), 5*time.Hour))

	_, err := repository.NewTaskRepository(db).FindByID(context.Background(), boundary.ID)
	assert.NoError(t, err)
}
