package database

import (
	"context"
	"fmt"
	"time"

	"barberbridge/internal/models"

	"github.com/google/uuid"
)

// LogMessage appends one entry to the conversation log of a phone.
func (db *DB) LogMessage(ctx context.Context, phone, message, direction string) (*models.ConversationEntry, error) {
	entry := &models.ConversationEntry{
		ID:        uuid.NewString(),
		Phone:     phone,
		Message:   message,
		Direction: direction,
		CreatedAt: time.Now(),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO conversations (id, phone, message, direction, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Phone, entry.Message, entry.Direction, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log message: %w", err)
	}
	return entry, nil
}

func (db *DB) ListConversation(ctx context.Context, phone string) ([]*models.ConversationEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, phone, message, direction, created_at FROM conversations
         WHERE phone = ? ORDER BY created_at ASC, rowid ASC`, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ConversationEntry, 0)
	for rows.Next() {
		var e models.ConversationEntry
		if err := rows.Scan(&e.ID, &e.Phone, &e.Message, &e.Direction, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation: %w", err)
	}
	return entries, nil
}
