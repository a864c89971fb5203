package store

import "time"

// Event is an accepted impression or conversion as stored.
type Event struct {
	ID         string
	Type       string // "impression" or "conversion"
	Variant    string
	URL        string
	PlanID     string // conversions only, may be empty
	OccurredAt time.Time
	ReceivedAt time.Time
}

type VariantStats struct {
	Variant     string
	Impressions int
	Conversions int
}

// Rate is conversions per impression, 0 when there are no impressions.
func (s VariantStats) Rate() float64 {
	if s.Impressions == 0 {
		return 0
	}
	return float64(s.Conversions) / float64(s.Impressions)
}

type PlanStats struct {
	Variant     string
	PlanID      string
	Conversions int
}
