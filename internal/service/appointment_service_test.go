package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"barberbridge/internal/database"
	"barberbridge/internal/events"
	"barberbridge/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAppointmentService(t *testing.T) {
	repo := new(mockRepo)
	catalog := new(mockServiceRepo)
	bus := new(mockEventBus)
	worker := new(mockWorker)
	logger := zerolog.New(io.Discard)
	svc := NewAppointmentService(repo, catalog, bus, worker, &logger)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		req := models.NewAppointment{Phone: "5511", Service: "Beard", Date: "2025-06-20", Time: "15:00"}

		var stored *models.Appointment
		repo.On("CreateAppointment", ctx, mock.AnythingOfType("*models.Appointment")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Appointment) }).
			Return(nil).Once()
		bus.On("PublishJSON", events.EventAppointmentCreated, mock.Anything).Return(nil).Once()
		worker.On("EnqueueAppointment", ctx, TaskUpsert, mock.AnythingOfType("*models.Appointment")).Return(nil).Once()

		id, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		require.NotNil(t, stored)
		assert.Equal(t, id, stored.ID)
		assert.Equal(t, models.StatusPending, stored.Status)
		assert.Equal(t, models.DefaultClientName, stored.ClientName)
		assert.Equal(t, "Beard", stored.Service)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
		worker.AssertExpectations(t)
	})

	t.Run("CreateStoreError", func(t *testing.T) {
		repo.On("CreateAppointment", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		id, err := svc.Create(ctx, models.NewAppointment{Phone: "1"})
		assert.Error(t, err)
		assert.Empty(t, id)
	})

	t.Run("CreateIgnoresSideEffectErrors", func(t *testing.T) {
		repo.On("CreateAppointment", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", events.EventAppointmentCreated, mock.Anything).Return(errors.New("bus")).Once()
		worker.On("EnqueueAppointment", ctx, TaskUpsert, mock.Anything).Return(errors.New("queue full")).Once()

		_, err := svc.Create(ctx, models.NewAppointment{Phone: "1", ClientName: "Ana"})
		assert.NoError(t, err)
	})

	t.Run("Cancel", func(t *testing.T) {
		appt := &models.Appointment{ID: "a-1", Status: models.StatusCanceled}
		repo.On("UpdateAppointmentStatus", ctx, "a-1", models.StatusCanceled).Return(nil).Once()
		repo.On("GetAppointment", ctx, "a-1").Return(appt, nil).Once()
		bus.On("PublishJSON", events.EventAppointmentCanceled, mock.Anything).Return(nil).Once()
		worker.On("EnqueueAppointment", ctx, TaskUpdateStatus, appt).Return(nil).Once()

		found, err := svc.Cancel(ctx, "a-1")
		require.NoError(t, err)
		assert.True(t, found)
		worker.AssertExpectations(t)
	})

	t.Run("CancelUnknown", func(t *testing.T) {
		repo.On("UpdateAppointmentStatus", ctx, "ghost", models.StatusCanceled).Return(database.ErrNotFound).Once()

		found, err := svc.Cancel(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("CancelStoreError", func(t *testing.T) {
		repo.On("UpdateAppointmentStatus", ctx, "a-2", models.StatusCanceled).Return(errors.New("locked")).Once()

		found, err := svc.Cancel(ctx, "a-2")
		assert.Error(t, err)
		assert.False(t, found)
	})

	t.Run("Confirm", func(t *testing.T) {
		appt := &models.Appointment{ID: "a-3", Status: models.StatusConfirmed}
		repo.On("UpdateAppointmentStatus", ctx, "a-3", models.StatusConfirmed).Return(nil).Once()
		repo.On("GetAppointment", ctx, "a-3").Return(appt, nil).Once()
		bus.On("PublishJSON", events.EventAppointmentConfirmed, mock.Anything).Return(nil).Once()
		worker.On("EnqueueAppointment", ctx, TaskUpdateStatus, appt).Return(nil).Once()

		found, err := svc.Confirm(ctx, "a-3")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("ConfirmReloadFailure", func(t *testing.T) {
		repo.On("UpdateAppointmentStatus", ctx, "a-4", models.StatusConfirmed).Return(nil).Once()
		repo.On("GetAppointment", ctx, "a-4").Return(nil, errors.New("gone")).Once()

		found, err := svc.Confirm(ctx, "a-4")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("ListAvailability", func(t *testing.T) {
		repo.On("OccupiedTimes", ctx, "2025-06-20").Return(map[string]bool{"09:00": true, "17:30": true}, nil).Once()

		slots, err := svc.ListAvailability(ctx, "2025-06-20")
		require.NoError(t, err)
		require.Len(t, slots, len(models.SlotCalendar))
		for i, slot := range slots {
			assert.Equal(t, models.SlotCalendar[i], slot.Time)
			busy := slot.Time == "09:00" || slot.Time == "17:30"
			assert.Equal(t, !busy, slot.Available, slot.Time)
		}
	})

	t.Run("ListAvailabilityError", func(t *testing.T) {
		repo.On("OccupiedTimes", ctx, "bad").Return(nil, errors.New("closed")).Once()

		_, err := svc.ListAvailability(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("QueryAndServices", func(t *testing.T) {
		filter := models.AppointmentFilter{Phone: "5511"}
		list := []*models.Appointment{{ID: "x"}}
		repo.On("ListAppointments", ctx, filter).Return(list, nil).Once()
		catalog.On("ListServices", ctx).Return(models.DefaultServices(), nil).Once()

		got, err := svc.Query(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, list, got)

		services, err := svc.Services(ctx)
		require.NoError(t, err)
		assert.Len(t, services, 4)
	})
}

func TestAppointmentServiceWithoutSideEffects(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewAppointmentService(repo, nil, nil, nil, &logger)

	repo.On("CreateAppointment", mock.Anything, mock.Anything).Return(nil).Once()
	_, err := svc.Create(context.Background(), models.NewAppointment{Phone: "1"})
	assert.NoError(t, err)
}
