// Package event defines the impression and conversion payloads exchanged
// between the reporter and the collector, and validates them.
package event

import (
	"time"

	"github.com/paywall-split/paywall-split/internal/variant"
)

type Kind string

const (
	KindImpression Kind = "impression"
	KindConversion Kind = "conversion"
)

// Event is the wire payload posted to the collector's /events endpoint.
// Timestamp is an RFC 3339 date-time string.
type Event struct {
	Type      Kind   `json:"type" validate:"required,oneof=impression conversion"`
	Variant   string `json:"variant" validate:"required"`
	URL       string `json:"url" validate:"required,url"`
	PlanID    string `json:"planId,omitempty"`
	Timestamp string `json:"timestamp" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// NewImpression builds an impression event for v shown on pageURL at ts.
func NewImpression(v variant.Variant, pageURL string, ts time.Time) Event {
	return Event{
		Type:      KindImpression,
		Variant:   v.String(),
		URL:       pageURL,
		Timestamp: FormatTimestamp(ts),
	}
}

// NewConversion builds a conversion event. planID may be empty.
func NewConversion(v variant.Variant, planID, pageURL string, ts time.Time) Event {
	return Event{
		Type:      KindConversion,
		Variant:   v.String(),
		URL:       pageURL,
		PlanID:    planID,
		Timestamp: FormatTimestamp(ts),
	}
}

// FormatTimestamp renders ts the way browsers' Date.toISOString does.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Time parses the event's timestamp.
func (e Event) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

func (e Event) IsConversion() bool {
	return e.Type == KindConversion
}
