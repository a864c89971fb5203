// Package split assigns visitors to experiment variants and keeps the
// assignment stable across visits.
package split

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/variant"
)

const (
	DefaultCookieName   = "paywall_variant"
	DefaultDistribution = "50,50"
	DefaultExpiration   = 30 * 24 * time.Hour
)

type Options struct {
	// CookieName is the key of the assignment record.
	CookieName string

	// Distribution is a comma-separated list of percentages, one per variant.
	Distribution string

	// Expiration is how long an assignment record stays valid.
	Expiration time.Duration

	// Variants is the ordered set of valid variants. Zero value means a..d.
	Variants variant.Set

	// Rand returns a float in [0,1). Defaults to math/rand/v2.
	Rand func() float64

	Logger *zap.Logger
}

// Engine resolves the variant for a visitor. An Engine holds configuration
// only; the assignment record lives in the Store passed to each call.
type Engine struct {
	cookieName   string
	distribution variant.Distribution
	expiration   time.Duration
	variants     variant.Set
	rand         func() float64
	log          *zap.Logger
}

// New validates opts and builds an Engine. A distribution with a non-zero
// weight past the end of the variant set is rejected. A distribution that
// does not add up to 100 is accepted with a warning: draws above its total
// fall back to the first variant.
func New(opts Options) (*Engine, error) {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Distribution == "" {
		opts.Distribution = DefaultDistribution
	}
	if opts.Expiration <= 0 {
		opts.Expiration = DefaultExpiration
	}
	if opts.Variants.Len() == 0 {
		opts.Variants = variant.DefaultSet()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dist, err := variant.ParseDistribution(opts.Distribution)
	if err != nil {
		return nil, fmt.Errorf("invalid distribution: %w", err)
	}
	if err := dist.Fits(opts.Variants); err != nil {
		return nil, err
	}
	if !dist.Balanced() {
		opts.Logger.Warn("distribution does not sum to 100; unmatched draws fall back to the first variant",
			zap.String("distribution", dist.String()),
			zap.Float64("sum", dist.Sum()),
			zap.String("fallback", opts.Variants.First().String()),
		)
	}

	return &Engine{
		cookieName:   opts.CookieName,
		distribution: dist,
		expiration:   opts.Expiration,
		variants:     opts.Variants,
		rand:         opts.Rand,
		log:          opts.Logger,
	}, nil
}

// Resolve returns the visitor's variant. A valid override wins and is
// persisted. Otherwise a valid persisted record is returned untouched.
// Otherwise a fresh weighted draw is persisted and returned. Invalid
// overrides and invalid records are treated as absent.
func (e *Engine) Resolve(s Store, override string) variant.Variant {
	if override != "" {
		if v, err := e.variants.Parse(override); err == nil {
			e.persist(s, v)
			return v
		}
		e.log.Debug("ignoring invalid variant override", zap.String("override", override))
	}

	if stored, ok := s.Get(e.cookieName); ok {
		if v, err := e.variants.Parse(stored); err == nil {
			return v
		}
		e.log.Debug("ignoring invalid assignment record",
			zap.String("cookie", e.cookieName),
			zap.String("value", stored),
		)
	}

	v := e.Draw()
	e.persist(s, v)
	return v
}

// Draw performs one weighted random selection without touching any store.
func (e *Engine) Draw() variant.Variant {
	r := e.rand() * variant.DistributionTotal
	v, ok := e.distribution.Pick(e.variants, r)
	if !ok {
		e.log.Debug("draw exceeded distribution total, using first variant",
			zap.Float64("r", r),
			zap.String("variant", v.String()),
		)
	}
	return v
}

// SetVariant pins the visitor to v.
func (e *Engine) SetVariant(s Store, v string) error {
	parsed, err := e.variants.Parse(v)
	if err != nil {
		return err
	}
	e.persist(s, parsed)
	return nil
}

// Clear removes the assignment record; the next Resolve draws again.
func (e *Engine) Clear(s Store) {
	s.Remove(e.cookieName)
}

func (e *Engine) persist(s Store, v variant.Variant) {
	s.Set(e.cookieName, v.String(), e.expiration)
}

func (e *Engine) CookieName() string {
	return e.cookieName
}

func (e *Engine) Distribution() variant.Distribution {
	out := make(variant.Distribution, len(e.distribution))
	copy(out, e.distribution)
	return out
}

func (e *Engine) Expiration() time.Duration {
	return e.expiration
}

func (e *Engine) Variants() variant.Set {
	return e.variants
}
