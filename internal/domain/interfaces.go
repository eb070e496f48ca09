package domain

import (
	"context"
	"time"

	"barberbridge/internal/models"
)

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error)
	AllAppointments(ctx context.Context) ([]*models.Appointment, error)
	OccupiedTimes(ctx context.Context, date string) (map[string]bool, error)
}

type ConversationRepository interface {
	LogMessage(ctx context.Context, phone, message, direction string) (*models.ConversationEntry, error)
	ListConversation(ctx context.Context, phone string) ([]*models.ConversationEntry, error)
}

type ServiceRepository interface {
	ListServices(ctx context.Context) ([]models.ServiceCatalogEntry, error)
}

// MessageSender delivers a text message to a phone through the messaging gateway.
type MessageSender interface {
	Send(ctx context.Context, phone, body string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueAppointment(ctx context.Context, taskType string, appt *models.Appointment) error
}

type SheetsWriter interface {
	UpsertAppointment(ctx context.Context, appt *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, appointmentID, status string) error
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Ledger is the appointment store used by the router and the HTTP API.
type Ledger interface {
	Create(ctx context.Context, req models.NewAppointment) (string, error)
	Get(ctx context.Context, id string) (*models.Appointment, error)
	Cancel(ctx context.Context, id string) (bool, error)
	Confirm(ctx context.Context, id string) (bool, error)
	ListAvailability(ctx context.Context, date string) ([]models.Slot, error)
	Query(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error)
	Export(ctx context.Context) ([]*models.Appointment, error)
	Services(ctx context.Context) ([]models.ServiceCatalogEntry, error)
}

type Router interface {
	HandleInbound(ctx context.Context, phone, text string) (string, error)
	History(ctx context.Context, phone string) ([]*models.ConversationEntry, error)
}
