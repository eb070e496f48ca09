package models

import "time"

type Appointment struct {
	ID               string    `json:"id"`
	Phone            string    `json:"phone"`
	ClientName       string    `json:"client_name"`
	Service          string    `json:"service"`
	Date             string    `json:"date"`   // YYYY-MM-DD, not validated
	Time             string    `json:"time"`   // HH:MM, not validated
	Status           string    `json:"status"` // pending, confirmed, canceled
	ExternalBarberID *string   `json:"external_barber_id"`
	ExternalCRMID    *string   `json:"external_crm_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewAppointment holds the caller-supplied fields of an appointment.
type NewAppointment struct {
	Phone      string `json:"phone"`
	ClientName string `json:"client_name"`
	Service    string `json:"service"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// AppointmentFilter narrows a ledger query. Empty fields are ignored.
type AppointmentFilter struct {
	Phone  string
	Date   string
	Status string
}
