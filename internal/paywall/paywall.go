// Package paywall ties assignment, reporting and content loading together
// into the flow a page runs when it mounts a paywall.
package paywall

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/report"
	"github.com/paywall-split/paywall-split/internal/split"
	"github.com/paywall-split/paywall-split/internal/variant"
)

// Reporter is the part of report.Reporter the controller needs.
type Reporter interface {
	ReportImpression(ctx context.Context, v variant.Variant, pageURL string, ts time.Time) *report.Task
	ReportConversion(ctx context.Context, v variant.Variant, planID, pageURL string, ts time.Time) *report.Task
}

// Result describes one mounted paywall.
type Result struct {
	Variant variant.Variant

	// Offers are the plan ids the visitor can convert on. Empty when the
	// content failed to load.
	Offers []string

	// Impression is the in-flight impression report. Callers may observe
	// it but are not expected to wait.
	Impression *report.Task

	// LoadErr is set when the content could not be loaded. The mount is
	// left untouched in that case.
	LoadErr error
}

type Controller struct {
	engine   *split.Engine
	reporter Reporter
	loader   *content.Loader
	log      *zap.Logger
	now      func() time.Time
}

func NewController(engine *split.Engine, reporter Reporter, loader *content.Loader, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		engine:   engine,
		reporter: reporter,
		loader:   loader,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for event timestamps.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

func (c *Controller) Engine() *split.Engine {
	return c.engine
}

// Mount resolves the visitor's variant (the mount's override first), marks
// the mount with it, fires the impression and loads the variant's content.
// The impression and the content fetch run independently of each other.
func (c *Controller) Mount(ctx context.Context, m content.Mount, s split.Store, pageURL string) Result {
	v := c.engine.Resolve(s, m.Override())
	m.Annotate(v)

	res := Result{
		Variant:    v,
		Impression: c.reporter.ReportImpression(ctx, v, pageURL, c.now()),
	}

	offers, err := c.loader.Load(ctx, v, m)
	if err != nil {
		res.LoadErr = err
		return res
	}
	res.Offers = offers

	c.log.Debug("paywall mounted",
		zap.String("variant", v.String()),
		zap.Strings("offers", offers),
	)
	return res
}

// Convert reports that the visitor on v chose planID.
func (c *Controller) Convert(ctx context.Context, v variant.Variant, planID, pageURL string) *report.Task {
	return c.reporter.ReportConversion(ctx, v, planID, pageURL, c.now())
}
