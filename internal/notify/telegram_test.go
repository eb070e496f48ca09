package notify

import (
	"errors"
	"io"
	"strings"
	"testing"

	"barberbridge/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func messageTo(chatID int64, contains string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == chatID && strings.Contains(msg.Text, contains)
	})
}

func TestManagerNotifier(t *testing.T) {
	sender := new(mockTelegramSender)
	logger := zerolog.New(io.Discard)
	n := NewManagerNotifier(sender, []int64{10, 20}, &logger)

	bus := events.NewEventBus()
	n.Attach(bus)

	t.Run("created", func(t *testing.T) {
		sender.On("Send", messageTo(10, "New appointment")).Return(tgbotapi.Message{}, nil).Once()
		sender.On("Send", messageTo(20, "New appointment")).Return(tgbotapi.Message{}, nil).Once()

		require.NoError(t, bus.PublishJSON(events.EventAppointmentCreated, events.AppointmentEventPayload{
			AppointmentID: "a-1", Phone: "5511", ClientName: "Client", Service: "Beard", Date: "2025-06-21", Time: "15:30",
		}))
		sender.AssertExpectations(t)
	})

	t.Run("delivery failure", func(t *testing.T) {
		sender.On("Send", messageTo(10, "was not delivered")).Return(tgbotapi.Message{}, nil).Once()
		sender.On("Send", messageTo(20, "was not delivered")).Return(tgbotapi.Message{}, errors.New("blocked")).Once()

		err := n.HandleDeliveryFailure(&events.Event{
			Type:    events.EventMessageDeliveryFail,
			Payload: []byte(`{"phone":"5511","error":"gateway down"}`),
		})
		assert.ErrorContains(t, err, "20")
		sender.AssertExpectations(t)
	})

	t.Run("bad payload", func(t *testing.T) {
		err := n.HandleAppointment(&events.Event{Type: events.EventAppointmentCanceled, Payload: []byte("{")})
		assert.Error(t, err)
	})
}

func TestFormatAppointment(t *testing.T) {
	p := events.AppointmentEventPayload{AppointmentID: "a-1", Status: "canceled"}
	assert.Contains(t, formatAppointment(events.EventAppointmentCanceled, p), "canceled")
	assert.Contains(t, formatAppointment(events.EventAppointmentConfirmed, p), "confirmed")
	assert.Contains(t, formatAppointment("other", p), "Appointment canceled")
}
