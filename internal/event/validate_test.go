package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywall-split/paywall-split/internal/event"
	"github.com/paywall-split/paywall-split/internal/variant"
)

func validEvent() event.Event {
	return event.Event{
		Type:      event.KindConversion,
		Variant:   "b",
		URL:       "https://example.com/pricing?ref=nav",
		PlanID:    "price_pro_monthly",
		Timestamp: "2024-03-01T12:30:00.000Z",
	}
}

func TestValidate_Accepts(t *testing.T) {
	v := event.NewValidator(variant.DefaultSet())

	assert.NoError(t, v.Validate(validEvent()))

	impression := validEvent()
	impression.Type = event.KindImpression
	impression.PlanID = ""
	impression.Timestamp = "2024-03-01T12:30:00+02:00"
	assert.NoError(t, v.Validate(impression))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(e *event.Event)
		field string
	}{
		{"unknown type", func(e *event.Event) { e.Type = "click" }, "type"},
		{"missing type", func(e *event.Event) { e.Type = "" }, "type"},
		{"variant outside set", func(e *event.Event) { e.Variant = "z" }, "variant"},
		{"missing variant", func(e *event.Event) { e.Variant = "" }, "variant"},
		{"relative url", func(e *event.Event) { e.URL = "/pricing" }, "url"},
		{"not a url", func(e *event.Event) { e.URL = "pricing page" }, "url"},
		{"bad timestamp", func(e *event.Event) { e.Timestamp = "yesterday" }, "timestamp"},
		{"date only", func(e *event.Event) { e.Timestamp = "2024-03-01" }, "timestamp"},
	}

	v := event.NewValidator(variant.DefaultSet())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mut(&e)

			err := v.Validate(e)

			var verr *event.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidate_CustomVariantSet(t *testing.T) {
	set, err := variant.ParseSet("control,treatment")
	require.NoError(t, err)
	v := event.NewValidator(set)

	e := validEvent()
	e.Variant = "treatment"
	assert.NoError(t, v.Validate(e))

	e.Variant = "a"
	assert.Error(t, v.Validate(e))
}

func TestNewImpression(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	e := event.NewImpression("b", "https://example.com/", ts)

	assert.Equal(t, event.KindImpression, e.Type)
	assert.Equal(t, "b", e.Variant)
	assert.Equal(t, "2024-03-01T11:30:00.000Z", e.Timestamp)
	assert.Empty(t, e.PlanID)

	parsed, err := e.Time()
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestNewConversion(t *testing.T) {
	e := event.NewConversion("a", "price_basic_monthly", "https://example.com/", time.Now())

	assert.True(t, e.IsConversion())
	assert.Equal(t, "price_basic_monthly", e.PlanID)
	assert.NoError(t, event.NewValidator(variant.DefaultSet()).Validate(e))
}
