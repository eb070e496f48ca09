package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"barberbridge/internal/database"
	"barberbridge/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu          sync.Mutex
	err         error
	upserts     []*models.Appointment
	statusCalls map[string]string
}

func (f *fakeSheets) UpsertAppointment(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, appt)
	return nil
}

func (f *fakeSheets) UpdateAppointmentStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.statusCalls == nil {
		f.statusCalls = make(map[string]string)
	}
	f.statusCalls[id] = status
	return nil
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testAppointment(id string) *models.Appointment {
	return &models.Appointment{
		ID: id, Phone: "5511", ClientName: "Client", Service: "Haircut",
		Date: "2025-06-20", Time: "10:00", Status: models.StatusPending,
	}
}

func loadTask(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry *time.Time) {
	t.Helper()
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id).
		Scan(&status, &retryCount, &nextRetry)
	require.NoError(t, err)
	return status, retryCount, nextRetry
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-1")))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTask(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
	assert.Equal(t, 0, retryCount)
	assert.Nil(t, nextRetry)
	require.Len(t, sheets.upserts, 1)
	assert.Equal(t, "a-1", sheets.upserts[0].ID)
}

func TestProcessStatusUpdate(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	appt := testAppointment("a-2")
	appt.Status = models.StatusCanceled
	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpdateStatus, appt))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	assert.Equal(t, models.StatusCanceled, sheets.statusCalls["a-2"])
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	w := NewSheetsWorker(db, &fakeSheets{err: errors.New("boom")}, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-3")))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTask(t, db, task.ID)
	assert.Equal(t, models.SyncStatusRetry, status)
	assert.Equal(t, 1, retryCount)
	require.NotNil(t, nextRetry)
	assert.True(t, nextRetry.After(time.Now()))
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	w := NewSheetsWorker(db, &fakeSheets{err: errors.New("fatal")}, nil, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-4")))
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTask(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "fatal", *failed[0].LastError)
}

func TestProcessBadPayload(t *testing.T) {
	db := newTestDB(t)
	w := NewSheetsWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: TaskUpsert, AppointmentID: "x", Payload: "{"}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	w.processTask(ctx, task)

	status, _, _ := loadTask(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)
}

func TestEnqueueValidation(t *testing.T) {
	w := NewSheetsWorker(newTestDB(t), &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueAppointment(ctx, "", testAppointment("a")))
	assert.Error(t, w.EnqueueAppointment(ctx, TaskUpsert, nil))
	assert.Error(t, w.EnqueueAppointment(ctx, TaskUpsert, &models.Appointment{}))
}

func TestProcessPendingFromStore(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-5")))
	// задача осталась в таблице, даже если локальная очередь потеряна
	_, _ = w.tryLocalQueue()

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, sheets.upserts, 1)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisQueueAndDeadLetter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := newTestDB(t)
	w := NewSheetsWorker(db, &fakeSheets{err: errors.New("quota")}, client, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-6")))
	_, local := w.tryLocalQueue()
	assert.False(t, local)

	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, "a-6", task.AppointmentID)

	w.processTask(ctx, &task)
	dead, err := client.LLen(ctx, "sheets:deadletter").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)
}

func TestStartStopsOnCancel(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.EnqueueAppointment(ctx, TaskUpsert, testAppointment("a-7")))

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		sheets.mu.Lock()
		defer sheets.mu.Unlock()
		return len(sheets.upserts) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
