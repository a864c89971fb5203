package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/paywall-split/paywall-split/internal/store"
)

var (
	exportFormat  string
	exportVariant string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export raw event data",
	Long: `Export recorded events in CSV or JSON format, newest first.

Examples:
  paywall-split export --format csv > events.csv
  paywall-split export --variant b --format json > variant-b.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	exportCmd.Flags().StringVar(&exportVariant, "variant", "", "only export events for this variant")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		events, err := s.GetEvents(context.Background(), exportVariant)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(cmd.OutOrStdout(), events)
		}
		return exportJSON(cmd.OutOrStdout(), events)
	})
}

func exportCSV(out io.Writer, events []*store.Event) error {
	w := csv.NewWriter(out)

	// Write header
	if err := w.Write([]string{"id", "occurred_at", "type", "variant", "plan_id", "url"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range events {
		row := []string{
			e.ID,
			e.OccurredAt.UTC().Format(time.RFC3339),
			e.Type,
			e.Variant,
			e.PlanID,
			e.URL,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	ReceivedAt time.Time `json:"received_at"`
	Type       string    `json:"type"`
	Variant    string    `json:"variant"`
	PlanID     string    `json:"plan_id,omitempty"`
	URL        string    `json:"url"`
}

func exportJSON(out io.Writer, events []*store.Event) error {
	export := jsonExport{
		Events: make([]jsonEvent, len(events)),
	}

	for i, e := range events {
		export.Events[i] = jsonEvent{
			ID:         e.ID,
			OccurredAt: e.OccurredAt.UTC(),
			ReceivedAt: e.ReceivedAt.UTC(),
			Type:       e.Type,
			Variant:    e.Variant,
			PlanID:     e.PlanID,
			URL:        e.URL,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
