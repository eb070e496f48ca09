package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberbridge/internal/models"
)

const appointmentColumns = `id, phone, client_name, service, date, time, status,
    external_barber_id, external_crm_id, created_at, updated_at`

func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	now := time.Now()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	if appt.Status == "" {
		appt.Status = models.StatusPending
	}

	query := `INSERT INTO appointments (` + appointmentColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		appt.ID,
		appt.Phone,
		appt.ClientName,
		appt.Service,
		appt.Date,
		appt.Time,
		appt.Status,
		appt.ExternalBarberID,
		appt.ExternalCRMID,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	db.logger.Debug().
		Str("appointment_id", appt.ID).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment stored")
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt, err := scanAppointment(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// UpdateAppointmentStatus returns ErrNotFound when no row has the given id.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("invalid appointment status %q", status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAppointments applies the non-empty filter fields with AND,
// newest date first and newest record first within a date.
func (db *DB) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, filter.Phone)
	}
	if filter.Date != "" {
		conds = append(conds, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	return db.queryAppointments(ctx, query, args...)
}

// AllAppointments returns every appointment ordered by creation time, newest first.
func (db *DB) AllAppointments(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC`
	return db.queryAppointments(ctx, query)
}

// OccupiedTimes returns the set of times on date held by pending or confirmed appointments.
func (db *DB) OccupiedTimes(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT time, status FROM appointments WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied times: %w", err)
	}
	defer rows.Close()

	occupied := make(map[string]bool)
	for rows.Next() {
		var t, status string
		if err := rows.Scan(&t, &status); err != nil {
			return nil, fmt.Errorf("failed to scan time: %w", err)
		}
		if models.IsActiveStatus(status) {
			occupied[t] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occupied times: %w", err)
	}
	return occupied, nil
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]*models.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appt models.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.Phone,
		&appt.ClientName,
		&appt.Service,
		&appt.Date,
		&appt.Time,
		&appt.Status,
		&appt.ExternalBarberID,
		&appt.ExternalCRMID,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}
