package database

import (
	"context"
	"fmt"

	"barberbridge/internal/models"

	"github.com/google/uuid"
)

// SeedServices inserts catalog entries whose names are not stored yet.
func (db *DB) SeedServices(ctx context.Context, services []models.ServiceCatalogEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO services (id, name, description, duration_minutes, price) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, svc := range services {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), svc.Name, svc.Description, svc.DurationMinutes, svc.Price); err != nil {
			return fmt.Errorf("failed to seed service %s: %w", svc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.logger.Info().Int("count", len(services)).Msg("service catalog seeded")
	return nil
}

func (db *DB) ListServices(ctx context.Context) ([]models.ServiceCatalogEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, COALESCE(description, ''), duration_minutes, price FROM services ORDER BY price ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	services := make([]models.ServiceCatalogEntry, 0)
	for rows.Next() {
		var s models.ServiceCatalogEntry
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}
