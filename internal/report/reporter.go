// Package report sends impression and conversion events to the collector.
//
// Every call is a single fire-and-forget submission: the caller gets a Task
// it may observe, but page rendering never waits on it. Failures are logged
// at warn level and dropped. Nothing is retried, batched or coalesced.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/event"
	"github.com/paywall-split/paywall-split/internal/variant"
)

var (
	// ErrTransport means the event never reached the collector.
	ErrTransport = errors.New("event submission failed")

	// ErrRejected means the collector answered with a non-2xx status.
	ErrRejected = errors.New("event rejected by collector")
)

const defaultTimeout = 10 * time.Second

type Option func(*Reporter)

// WithHTTPClient replaces the client used for submissions.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reporter) { r.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reporter) { r.log = l }
}

type Reporter struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// New returns a Reporter posting to <collectorURL>/events.
func New(collectorURL string, opts ...Option) *Reporter {
	r := &Reporter{
		endpoint: strings.TrimRight(collectorURL, "/") + "/events",
		client:   &http.Client{Timeout: defaultTimeout},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) Endpoint() string {
	return r.endpoint
}

// ReportImpression records that v was shown on pageURL.
func (r *Reporter) ReportImpression(ctx context.Context, v variant.Variant, pageURL string, ts time.Time) *Task {
	return r.submit(ctx, event.NewImpression(v, pageURL, ts))
}

// ReportConversion records that a visitor on v converted, optionally on planID.
func (r *Reporter) ReportConversion(ctx context.Context, v variant.Variant, planID, pageURL string, ts time.Time) *Task {
	return r.submit(ctx, event.NewConversion(v, planID, pageURL, ts))
}

// submit detaches from ctx cancellation: an in-flight event is only bounded
// by the client timeout.
func (r *Reporter) submit(ctx context.Context, e event.Event) *Task {
	t := newTask(e)
	ctx = context.WithoutCancel(ctx)

	go func() {
		err := r.post(ctx, e)
		if err != nil {
			r.log.Warn("failed to report event",
				zap.String("type", string(e.Type)),
				zap.String("variant", e.Variant),
				zap.String("url", e.URL),
				zap.Error(err),
			)
		}
		t.finish(err)
	}()

	return t
}

func (r *Reporter) post(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
