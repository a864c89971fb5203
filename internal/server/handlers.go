package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/billing"
	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/event"
	"github.com/paywall-split/paywall-split/internal/store"
)

const (
	maxEventBytes   = 16 << 10
	maxWebhookBytes = 64 << 10
)

type HealthResponse struct {
	Status        string   `json:"status"`
	Variants      []string `json:"variants"`
	DBSizeBytes   int64    `json:"db_size_bytes,omitempty"`
	UptimeSeconds int64    `json:"uptime_seconds"`
}

// sizer is implemented by recorders backed by a database file.
type sizer interface {
	SizeBytes(ctx context.Context) (int64, error)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "ok",
		Variants:      s.variants.Strings(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if sz, ok := s.recorder.(sizer); ok {
		size, err := sz.SizeBytes(r.Context())
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		response.DBSizeBytes = size
	}

	writeJSON(w, http.StatusOK, response)
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type EventResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// handleEvents accepts impression and conversion events. Only malformed
// events are refused; storage and notification failures are logged and the
// event is still acknowledged.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var e event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&e); err != nil {
		s.metrics.EventRejected()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	if err := s.validator.Validate(e); err != nil {
		s.metrics.EventRejected()
		resp := errorResponse{Error: "Invalid event data"}
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			resp.Details = verr.Fields
		}
		s.log.Info("rejected event", zap.String("variant", e.Variant), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	id := uuid.NewString()
	s.log.Info("event received",
		zap.String("id", id),
		zap.String("type", string(e.Type)),
		zap.String("variant", e.Variant),
		zap.String("url", e.URL),
		zap.String("plan_id", e.PlanID),
	)

	if s.recorder != nil {
		occurred, _ := e.Time()
		rec := &store.Event{
			ID:         id,
			Type:       string(e.Type),
			Variant:    e.Variant,
			URL:        e.URL,
			PlanID:     e.PlanID,
			OccurredAt: occurred,
		}
		if err := s.recorder.RecordEvent(r.Context(), rec); err != nil {
			s.log.Error("failed to record event", zap.String("id", id), zap.Error(err))
		}
	}

	if e.IsConversion() {
		// Errors are logged per sink by the fanout.
		_ = s.fanout.Notify(context.WithoutCancel(r.Context()), e)
	}

	s.metrics.EventAccepted(string(e.Type), e.Variant)
	writeJSON(w, http.StatusOK, EventResponse{Success: true, ID: id})
}

// handleVariant returns the markup of a variant. Unknown or missing variants
// get the first variant's markup.
func (s *Server) handleVariant(w http.ResponseWriter, r *http.Request) {
	f := s.catalog.Lookup(r.URL.Query().Get("variant"))

	writeJSON(w, http.StatusOK, content.Response{
		Variant: f.Variant.String(),
		HTML:    f.HTML,
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	f := s.catalog.Lookup(mux.Vars(r)["variant"])

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.WriteString(w, f.CSS)
}

// handleWebhook verifies the billing provider's signature before anything
// in the payload is looked at.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhooks == nil {
		http.Error(w, "Webhook secret not configured", http.StatusServiceUnavailable)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	eventType, err := s.webhooks.Process(r.Context(), payload, r.Header.Get(billing.SignatureHeader))
	s.metrics.WebhookProcessed(eventType, err)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, billing.ErrMissingSignature):
		s.log.Warn("webhook without signature")
		http.Error(w, "Missing Stripe-Signature header", http.StatusBadRequest)
	case errors.Is(err, billing.ErrSignature):
		s.log.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, "Webhook signature verification failed", http.StatusBadRequest)
	case errors.Is(err, billing.ErrPayload):
		s.log.Warn("malformed webhook payload", zap.String("type", eventType), zap.Error(err))
		http.Error(w, "Invalid webhook payload", http.StatusBadRequest)
	default:
		s.log.Error("webhook handler failed", zap.String("type", eventType), zap.Error(err))
		http.Error(w, "Webhook handler failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
