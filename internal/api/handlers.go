package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"barberbridge/internal/models"
	"barberbridge/internal/service"
)

// biaEnvelope is the BIA CRM webhook body. Phone and text may sit in several places.
type biaEnvelope struct {
	Data *struct {
		Contact struct {
			Phone string `json:"phone"`
		} `json:"contact"`
		From    string `json:"from"`
		Sender  string `json:"sender"`
		Message struct {
			Text string `json:"text"`
		} `json:"message"`
		Body string `json:"body"`
		Text string `json:"text"`
	} `json:"data"`
}

type inboundMessage struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

func (s *HTTPServer) handleBIAWebhook(w http.ResponseWriter, r *http.Request) {
	var env biaEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if env.Data == nil {
		writeError(w, http.StatusBadRequest, "data is required")
		return
	}

	d := env.Data
	phone := firstNonEmpty(d.Contact.Phone, d.From, d.Sender)
	text := firstNonEmpty(d.Message.Text, d.Body, d.Text)
	s.handleInbound(w, r, phone, text)
}

func (s *HTTPServer) handleMessageWebhook(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.handleInbound(w, r, msg.Phone, msg.Text)
}

func (s *HTTPServer) handleInbound(w http.ResponseWriter, r *http.Request, phone, text string) {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "phone and text are required")
		return
	}

	if !s.allowInbound(r, phone) {
		writeError(w, http.StatusTooManyRequests, "too many messages, try again later")
		return
	}

	reply, err := s.deps.Conversations.HandleInbound(r.Context(), phone, text)
	if errors.Is(err, service.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reply": reply})
}

// allowInbound applies the per-phone throttle. Limiter errors let the message through.
func (s *HTTPServer) allowInbound(r *http.Request, phone string) bool {
	limiter := s.deps.Inbound
	if limiter == nil || s.cfg.Inbound.RateLimitMessages <= 0 {
		return true
	}
	window := time.Duration(s.cfg.Inbound.RateLimitWindow) * time.Second
	allowed, err := limiter.CheckRateLimit(r.Context(), phone, s.cfg.Inbound.RateLimitMessages, window)
	if err != nil {
		s.logger.Warn().Err(err).Str("phone", phone).Msg("inbound rate limiter unavailable")
		return true
	}
	if !allowed {
		s.logger.Warn().Str("phone", phone).Msg("inbound rate limit exceeded")
	}
	return allowed
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.deps.Ledger.Services(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to list services")
		return
	}
	if services == nil {
		services = []models.ServiceCatalogEntry{}
	}
	writeJSON(w, http.StatusOK, services)
}

// handleSlots ignores the service segment: every service occupies a single slot.
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.PathValue("date"))
	slots, err := s.deps.Ledger.ListAvailability(r.Context(), date)
	if err != nil {
		s.internalError(w, r, err, "failed to list slots")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.NewAppointment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Service = strings.TrimSpace(req.Service)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.ClientName == "" || req.Phone == "" || req.Service == "" || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "client_name, phone, service, date and time are required")
		return
	}

	id, err := s.deps.Ledger.Create(r.Context(), req)
	if err != nil {
		s.internalError(w, r, err, "failed to create appointment")
		return
	}

	s.deps.Conversations.Deliver(r.Context(), req.Phone, service.DirectConfirmationMessage(req))

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointment_id": id})
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AppointmentFilter{
		Phone:  strings.TrimSpace(q.Get("phone")),
		Date:   strings.TrimSpace(q.Get("date")),
		Status: strings.TrimSpace(q.Get("status")),
	}

	appts, err := s.deps.Ledger.Query(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, err, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []*models.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// handleCancelAppointment succeeds for unknown ids too.
func (s *HTTPServer) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Ledger.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err, "failed to cancel appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	found, err := s.deps.Ledger.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, r, err, "failed to confirm appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "found": found})
}

func (s *HTTPServer) handleConversation(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Conversations.History(r.Context(), r.PathValue("phone"))
	if err != nil {
		s.internalError(w, r, err, "failed to load conversation")
		return
	}
	if entries == nil {
		entries = []*models.ConversationEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.cfg.App.Version,
		"system":  s.cfg.App.Name,
	})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
