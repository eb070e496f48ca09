// Package notify tells shop managers about ledger activity through Telegram.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"barberbridge/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the part of *tgbotapi.BotAPI used here.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot authorizes a bot API client whose requests are bounded by timeout.
func NewBot(token string, debug bool, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

type ManagerNotifier struct {
	bot      TelegramSender
	managers []int64
	logger   *zerolog.Logger
}

func NewManagerNotifier(bot TelegramSender, managers []int64, logger *zerolog.Logger) *ManagerNotifier {
	return &ManagerNotifier{bot: bot, managers: managers, logger: logger}
}

// Attach subscribes the notifier to ledger and delivery events.
func (n *ManagerNotifier) Attach(bus events.Subscriber) {
	for _, eventType := range events.AppointmentEvents {
		bus.Subscribe(eventType, n.HandleAppointment)
	}
	bus.Subscribe(events.EventMessageDeliveryFail, n.HandleDeliveryFailure)
}

func (n *ManagerNotifier) HandleAppointment(event *events.Event) error {
	var p events.AppointmentEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return n.broadcast(formatAppointment(event.Type, p))
}

func (n *ManagerNotifier) HandleDeliveryFailure(event *events.Event) error {
	var p events.DeliveryFailurePayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return n.broadcast(fmt.Sprintf("⚠️ Reply to %s was not delivered: %s", p.Phone, p.Error))
}

func (n *ManagerNotifier) broadcast(text string) error {
	var failed []string
	for _, chatID := range n.managers {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to notify manager")
			failed = append(failed, fmt.Sprint(chatID))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("telegram notify failed for chats %s", strings.Join(failed, ","))
	}
	return nil
}

func formatAppointment(eventType string, p events.AppointmentEventPayload) string {
	var title string
	switch eventType {
	case events.EventAppointmentCreated:
		title = "🆕 New appointment"
	case events.EventAppointmentConfirmed:
		title = "✅ Appointment confirmed"
	case events.EventAppointmentCanceled:
		title = "❌ Appointment canceled"
	default:
		title = "ℹ️ Appointment " + p.Status
	}
	return fmt.Sprintf("%s\n\n👤 %s (%s)\n💇 %s\n📅 %s %s\n🆔 %s",
		title, p.ClientName, p.Phone, p.Service, p.Date, p.Time, p.AppointmentID)
}
