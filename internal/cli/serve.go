package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/billing"
	"github.com/paywall-split/paywall-split/internal/config"
	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/logging"
	"github.com/paywall-split/paywall-split/internal/metrics"
	"github.com/paywall-split/paywall-split/internal/notify"
	"github.com/paywall-split/paywall-split/internal/paywall"
	"github.com/paywall-split/paywall-split/internal/report"
	"github.com/paywall-split/paywall-split/internal/server"
	"github.com/paywall-split/paywall-split/internal/split"
	"github.com/paywall-split/paywall-split/internal/store"
)

var (
	port         int
	distribution string
	apiURL       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the paywall-split HTTP server.

The server provides:
  - Client script at /paywall-split.js
  - Event endpoint for impressions and conversions
  - Variant markup and styles
  - Stripe webhook endpoint
  - Demo page, metrics and health check

Configuration comes from the environment (PAYWALL_*, STRIPE_WEBHOOK_SECRET,
SLACK_WEBHOOK_URL, DISCORD_WEBHOOK_URL, ALLOWED_ORIGINS); flags win.

Example:
  paywall-split serve --port 8080 --distribution 25,25,25,25`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default $PORT or 8080)")
	cmd.Flags().StringVar(&distribution, "distribution", "", "comma-separated variant weights (default $PAYWALL_DISTRIBUTION or 50,50)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "public collector URL baked into the script (default $PAYWALL_API_URL or the requesting host)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return serve(cmd.Context(), cfg)
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	srv, err := buildServer(cfg, s, log)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("paywall-split running on http://localhost:%d\n", cfg.Port)
	fmt.Printf("Script: %s/paywall-split.js\n", cfg.LocalURL())
	fmt.Printf("Demo:   http://localhost:%d/demo\n", cfg.Port)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start(ctx)
}

// buildServer wires the collector from cfg.
func buildServer(cfg config.Config, s *store.SQLiteStore, log *zap.Logger) (*server.Server, error) {
	variants, err := cfg.VariantSet()
	if err != nil {
		return nil, err
	}

	engine, err := split.New(split.Options{
		CookieName:   cfg.CookieName,
		Distribution: cfg.Distribution,
		Expiration:   cfg.Expiration(),
		Variants:     variants,
		Logger:       log.Named("split"),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid distribution: %w", err)
	}

	catalog, err := content.NewCatalog(variants, content.MonthlyTiers())
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	var sinks []notify.Sink
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlack(cfg.SlackWebhookURL, nil))
	}
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, notify.NewDiscord(cfg.DiscordWebhookURL, nil))
	}
	fanout := notify.NewFanout(log.Named("notify"), sinks...).WithObserver(m)

	var webhooks *billing.Processor
	if cfg.StripeWebhookSecret != "" {
		webhooks = billing.NewProcessor(cfg.StripeWebhookSecret, nil, log.Named("billing")).WithDeduper(s)
	} else {
		log.Warn("STRIPE_WEBHOOK_SECRET is not set, webhook endpoint disabled")
	}

	reporter := report.New(cfg.LocalURL(), report.WithLogger(log.Named("report")))
	loader := content.NewLoader(content.LocalSource{Catalog: catalog}, log.Named("content"))
	controller := paywall.NewController(engine, reporter, loader, log.Named("paywall"))

	return server.New(server.Options{
		Port:     cfg.Port,
		Variants: variants,
		Catalog:  catalog,
		Recorder: s,
		Fanout:   fanout,
		Webhooks: webhooks,
		Paywall:  controller,
		Metrics:  m,
		Script: server.ScriptConfig{
			APIURL:         cfg.APIURL,
			CookieName:     cfg.CookieName,
			Distribution:   cfg.Distribution,
			Container:      cfg.Container,
			ExpirationDays: cfg.ExpirationDays,
			Variants:       variants.Strings(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})
}
