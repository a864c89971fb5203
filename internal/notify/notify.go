// Package notify announces conversions to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/event"
)

// Sink receives a conversion notification.
type Sink interface {
	Name() string
	Notify(ctx context.Context, e event.Event) error
}

// Observer is told the outcome of each sink delivery.
type Observer interface {
	NotificationSent(sink string, err error)
}

// Fanout delivers a conversion to every configured sink. A failing sink is
// logged and does not stop the others.
type Fanout struct {
	sinks    []Sink
	log      *zap.Logger
	observer Observer
	timeout  time.Duration
}

func NewFanout(log *zap.Logger, sinks ...Sink) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{sinks: sinks, log: log, timeout: 5 * time.Second}
}

// WithObserver sets the delivery observer, typically a metrics recorder.
func (f *Fanout) WithObserver(o Observer) *Fanout {
	f.observer = o
	return f
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Notify sends e to all sinks and returns the joined sink errors for
// callers that want them. Errors are already logged.
func (f *Fanout) Notify(ctx context.Context, e event.Event) error {
	var errs []error
	for _, s := range f.sinks {
		sctx, cancel := context.WithTimeout(ctx, f.timeout)
		err := s.Notify(sctx, e)
		cancel()

		if f.observer != nil {
			f.observer.NotificationSent(s.Name(), err)
		}
		if err != nil {
			f.log.Error("failed to send conversion notification",
				zap.String("sink", s.Name()),
				zap.String("variant", e.Variant),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Message renders the human readable conversion line shared by all sinks.
func Message(prefix string, e event.Event) string {
	msg := fmt.Sprintf("%s New conversion from variant %s!", prefix, e.Variant)
	if e.PlanID != "" {
		msg += " Plan: " + e.PlanID
	}
	return msg
}

type webhookSink struct {
	name    string
	url     string
	client  *http.Client
	payload func(e event.Event) any
}

func (s *webhookSink) Name() string {
	return s.name
}

func (s *webhookSink) Notify(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(s.payload(e))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NewSlack posts {"text": ...} to a Slack incoming webhook.
func NewSlack(url string, client *http.Client) Sink {
	if client == nil {
		client = http.DefaultClient
	}
	return &webhookSink{
		name:   "slack",
		url:    url,
		client: client,
		payload: func(e event.Event) any {
			return map[string]string{"text": Message("🎉", e)}
		},
	}
}

// NewDiscord posts {"content": ...} to a Discord webhook.
func NewDiscord(url string, client *http.Client) Sink {
	if client == nil {
		client = http.DefaultClient
	}
	return &webhookSink{
		name:   "discord",
		url:    url,
		client: client,
		payload: func(e event.Event) any {
			return map[string]string{"content": Message("💸", e)}
		},
	}
}
