package models

import "time"

type ConversationEntry struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Direction string    `json:"direction"` // inbound, outbound
	CreatedAt time.Time `json:"created_at"`
}
