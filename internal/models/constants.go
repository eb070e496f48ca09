package models

// Appointment statuses as stored in the appointments table.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

// Conversation directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Sync task statuses.
const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

const (
	// DateLayout формат даты записи (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// DefaultTime время по умолчанию, если в сообщении его нет
	DefaultTime = "14:00"

	// DefaultService услуга по умолчанию для записи из переписки
	DefaultService = "Haircut"

	// BeardService услуга, если клиент упомянул бороду
	BeardService = "Beard"

	// DefaultClientName имя клиента, когда оно неизвестно
	DefaultClientName = "Client"

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// RateLimitMessages количество входящих сообщений с одного номера в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах
)

// IsValidStatus reports whether s is one of the appointment statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsActiveStatus reports whether an appointment in status s occupies its slot.
func IsActiveStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed
}
