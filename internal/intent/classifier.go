package intent

import (
	"strings"
	"time"

	"barberbridge/internal/models"
)

// Keyword families, English first, then the Portuguese words the shop's
// customers actually write. Families are checked in this order.
var (
	bookWords   = []string{"schedule", "book", "appointment slot", "agendar", "marcar"}
	cancelWords = []string{"cancel", "unschedule", "cancelar", "desmarcar"}
	checkWords  = []string{"check", "my appointment", "when", "consultar", "meu agendamento", "quando"}
	infoWords   = []string{"hours", "address", "price", "horário", "horario", "endereço", "preço"}
	beardWords  = []string{"beard", "barba"}
)

// Classifier maps message text to an Intent. It keeps no state between calls.
type Classifier struct {
	now func() time.Time
}

// NewClassifier builds a classifier whose reference date is taken from now.
// A nil now uses time.Now.
func NewClassifier(now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{now: now}
}

// Classify returns exactly one intent for any text.
func (c *Classifier) Classify(text string) Intent {
	msg := strings.ToLower(text)

	switch {
	case containsAny(stripWords(msg, cancelWords), bookWords):
		service := models.DefaultService
		if containsAny(msg, beardWords) {
			service = models.BeardService
		}
		return Intent{
			Action:  ActionBook,
			Service: service,
			Date:    ExtractDate(msg, c.now()),
			Time:    ExtractTime(msg),
		}
	case containsAny(msg, cancelWords):
		return Intent{Action: ActionCancel}
	case containsAny(msg, checkWords):
		return Intent{Action: ActionCheckStatus}
	case containsAny(msg, infoWords):
		return Intent{Action: ActionInfoRequest}
	default:
		return Intent{Action: ActionUnknown}
	}
}

// stripWords removes every occurrence of words from s. Cancel words are stripped
// before the booking check so "unschedule" and "desmarcar" do not read as bookings.
func stripWords(s string, words []string) string {
	for _, w := range words {
		s = strings.ReplaceAll(s, w, " ")
	}
	return s
}
