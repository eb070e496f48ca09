package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barberbridge/internal/database"
	"barberbridge/internal/domain"
	"barberbridge/internal/events"
	"barberbridge/internal/metrics"
	"barberbridge/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
)

// AppointmentService is the appointment ledger: create, cancel, confirm,
// availability and filtered queries over the store.
type AppointmentService struct {
	repo         domain.AppointmentRepository
	services     domain.ServiceRepository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewAppointmentService(
	repo domain.AppointmentRepository,
	services domain.ServiceRepository,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	logger *zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:         repo,
		services:     services,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// Create stores a pending appointment. No conflict check is made: two
// appointments may hold the same date and time.
func (s *AppointmentService) Create(ctx context.Context, req models.NewAppointment) (string, error) {
	appt := &models.Appointment{
		ID:         uuid.NewString(),
		Phone:      req.Phone,
		ClientName: req.ClientName,
		Service:    req.Service,
		Date:       req.Date,
		Time:       req.Time,
		Status:     models.StatusPending,
	}
	if strings.TrimSpace(appt.ClientName) == "" {
		appt.ClientName = models.DefaultClientName
	}

	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("phone", appt.Phone).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Str("service", appt.Service).
		Msg("appointment created")
	metrics.IncAppointment(appt.Status)

	s.publishEvent(events.EventAppointmentCreated, appt)
	s.enqueueSync(ctx, appt, TaskUpsert)

	return appt.ID, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// Cancel sets the status to canceled. Unknown ids give found=false without error.
func (s *AppointmentService) Cancel(ctx context.Context, id string) (bool, error) {
	return s.changeStatus(ctx, id, models.StatusCanceled, events.EventAppointmentCanceled)
}

// Confirm sets the status to confirmed. Unknown ids give found=false without error.
func (s *AppointmentService) Confirm(ctx context.Context, id string) (bool, error) {
	return s.changeStatus(ctx, id, models.StatusConfirmed, events.EventAppointmentConfirmed)
}

func (s *AppointmentService) changeStatus(ctx context.Context, id, status, eventType string) (bool, error) {
	err := s.repo.UpdateAppointmentStatus(ctx, id, status)
	if errors.Is(err, database.ErrNotFound) {
		s.logger.Debug().Str("appointment_id", id).Str("status", status).Msg("status change for unknown appointment")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info().Str("appointment_id", id).Str("status", status).Msg("appointment status changed")
	metrics.IncAppointment(status)

	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", id).Msg("failed to reload appointment after status change")
		return true, nil
	}
	s.publishEvent(eventType, appt)
	s.enqueueSync(ctx, appt, TaskUpdateStatus)
	return true, nil
}

// ListAvailability returns every calendar slot of date in calendar order.
func (s *AppointmentService) ListAvailability(ctx context.Context, date string) ([]models.Slot, error) {
	occupied, err := s.repo.OccupiedTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}

	slots := make([]models.Slot, 0, len(models.SlotCalendar))
	for _, t := range models.SlotCalendar {
		slots = append(slots, models.Slot{Time: t, Available: !occupied[t]})
	}
	return slots, nil
}

func (s *AppointmentService) Query(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	return s.repo.ListAppointments(ctx, filter)
}

// Export returns all appointments, newest created first.
func (s *AppointmentService) Export(ctx context.Context) ([]*models.Appointment, error) {
	return s.repo.AllAppointments(ctx)
}

func (s *AppointmentService) Services(ctx context.Context) ([]models.ServiceCatalogEntry, error) {
	return s.services.ListServices(ctx)
}

func (s *AppointmentService) publishEvent(eventType string, appt *models.Appointment) {
	if s.eventBus == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		Phone:         appt.Phone,
		ClientName:    appt.ClientName,
		Service:       appt.Service,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}

func (s *AppointmentService) enqueueSync(ctx context.Context, appt *models.Appointment, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	if err := s.sheetsWorker.EnqueueAppointment(ctx, taskType, appt); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
