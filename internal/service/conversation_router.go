package service

import (
	"context"
	"fmt"
	"strings"

	"barberbridge/internal/config"
	"barberbridge/internal/domain"
	"barberbridge/internal/events"
	"barberbridge/internal/intent"
	"barberbridge/internal/metrics"
	"barberbridge/internal/models"

	"github.com/rs/zerolog"
)

// ConversationRouter handles one inbound message end to end: log it,
// classify it, act on the ledger, reply through the gateway, log the reply.
type ConversationRouter struct {
	conversations domain.ConversationRepository
	ledger        domain.Ledger
	classifier    *intent.Classifier
	sender        domain.MessageSender
	eventBus      domain.EventPublisher
	shop          config.ShopConfig
	logger        *zerolog.Logger
}

func NewConversationRouter(
	conversations domain.ConversationRepository,
	ledger domain.Ledger,
	classifier *intent.Classifier,
	sender domain.MessageSender,
	eventBus domain.EventPublisher,
	shop config.ShopConfig,
	logger *zerolog.Logger,
) *ConversationRouter {
	if classifier == nil {
		classifier = intent.NewClassifier(nil)
	}
	return &ConversationRouter{
		conversations: conversations,
		ledger:        ledger,
		classifier:    classifier,
		sender:        sender,
		eventBus:      eventBus,
		shop:          shop,
		logger:        logger,
	}
}

// HandleInbound returns the reply sent to phone. Only blank input is an
// error; store and delivery failures are logged and absorbed.
func (r *ConversationRouter) HandleInbound(ctx context.Context, phone, text string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: phone and text are required", ErrValidation)
	}

	log := r.logger.With().Str("phone", phone).Logger()

	if _, err := r.conversations.LogMessage(ctx, phone, text, models.DirectionInbound); err != nil {
		log.Error().Err(err).Msg("failed to log inbound message")
	}

	in := r.classifier.Classify(text)
	metrics.IncIntent(string(in.Action))
	log.Info().Str("action", string(in.Action)).Msg("intent detected")

	reply := r.respond(ctx, &log, phone, in)

	r.Deliver(ctx, phone, reply)

	if _, err := r.conversations.LogMessage(ctx, phone, reply, models.DirectionOutbound); err != nil {
		log.Error().Err(err).Msg("failed to log outbound message")
	}

	return reply, nil
}

func (r *ConversationRouter) respond(ctx context.Context, log *zerolog.Logger, phone string, in intent.Intent) string {
	switch in.Action {
	case intent.ActionBook:
		req := models.NewAppointment{
			Phone:      phone,
			ClientName: in.ClientName,
			Service:    in.Service,
			Date:       in.Date,
			Time:       in.Time,
		}
		if req.ClientName == "" {
			req.ClientName = models.DefaultClientName
		}
		id, err := r.ledger.Create(ctx, req)
		if err != nil {
			log.Error().Err(err).Msg("failed to create appointment from conversation")
			return replyBookFailed
		}
		log.Info().Str("appointment_id", id).Msg("appointment booked from conversation")
		return bookedReply(req)

	case intent.ActionCancel:
		// записи не трогаем: клиент не указывает, какую именно отменить
		return replyCanceled

	case intent.ActionCheckStatus:
		return replyCheckStatus

	case intent.ActionInfoRequest:
		services, err := r.ledger.Services(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load service catalog")
		}
		return infoReply(r.shop, services)

	default:
		return greetingReply(r.shop)
	}
}

// Deliver sends body to phone. Failures are logged, counted and published, never returned.
func (r *ConversationRouter) Deliver(ctx context.Context, phone, body string) {
	if r.sender == nil {
		return
	}
	if err := r.sender.Send(ctx, phone, body); err != nil {
		r.logger.Error().Err(err).Str("phone", phone).Msg("failed to deliver message")
		metrics.IncDeliveryFailure()
		if r.eventBus != nil {
			_ = r.eventBus.PublishJSON(events.EventMessageDeliveryFail, events.DeliveryFailurePayload{
				Phone: phone,
				Error: err.Error(),
			})
		}
	}
}

// History returns the conversation of phone in timestamp order.
func (r *ConversationRouter) History(ctx context.Context, phone string) ([]*models.ConversationEntry, error) {
	return r.conversations.ListConversation(ctx, phone)
}
