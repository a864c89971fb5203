package split_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/paywall-split/paywall-split/internal/split"
	"github.com/paywall-split/paywall-split/internal/variant"
)

// countingRand returns fixed values and counts how often it was called.
type countingRand struct {
	values []float64
	calls  int
}

func (c *countingRand) next() float64 {
	v := c.values[c.calls%len(c.values)]
	c.calls++
	return v
}

func newEngine(t *testing.T, opts split.Options) *split.Engine {
	t.Helper()
	e, err := split.New(opts)
	require.NoError(t, err)
	return e
}

func TestNew_Defaults(t *testing.T) {
	e := newEngine(t, split.Options{})

	assert.Equal(t, "paywall_variant", e.CookieName())
	assert.Equal(t, 30*24*time.Hour, e.Expiration())
	assert.Equal(t, variant.Distribution{50, 50}, e.Distribution())
	assert.Equal(t, 4, e.Variants().Len())
}

func TestNew_RejectsMismatchedDistribution(t *testing.T) {
	set, err := variant.ParseSet("a,b")
	require.NoError(t, err)

	_, err = split.New(split.Options{Distribution: "40,30,30", Variants: set})
	assert.ErrorIs(t, err, variant.ErrDistributionMismatch)
}

func TestNew_RejectsMalformedDistribution(t *testing.T) {
	_, err := split.New(split.Options{Distribution: "50,fifty"})
	assert.Error(t, err)
}

func TestNew_WarnsOnUnbalancedDistribution(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	_, err := split.New(split.Options{Distribution: "40,40", Logger: zap.New(core)})
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "does not sum to 100")
}

func TestResolve_ConvergesToDistribution(t *testing.T) {
	distributions := []string{"50,50", "33,33,34", "10,20,30,40", "70,30"}

	for _, d := range distributions {
		t.Run(d, func(t *testing.T) {
			src := rand.New(rand.NewPCG(42, 7))
			e := newEngine(t, split.Options{Distribution: d, Rand: src.Float64})
			want := e.Distribution()

			const draws = 1_000_000
			counts := make(map[variant.Variant]int)
			store := split.NewMemoryStore()
			for i := 0; i < draws; i++ {
				counts[e.Resolve(store, "")]++
				e.Clear(store)
			}

			for i, w := range want {
				v, _ := e.Variants().At(i)
				got := float64(counts[v]) / draws * 100
				assert.LessOrEqualf(t, math.Abs(got-w), 1.0,
					"variant %s: observed %.2f%%, configured %.2f%%", v, got, w)
			}
		})
	}
}

func TestResolve_StableWithPersistedRecord(t *testing.T) {
	r := &countingRand{values: []float64{0.9}}
	e := newEngine(t, split.Options{Rand: r.next})
	store := split.NewMemoryStore()
	store.Set("paywall_variant", "b", time.Hour)

	first := e.Resolve(store, "")
	second := e.Resolve(store, "")

	assert.Equal(t, variant.Variant("b"), first)
	assert.Equal(t, first, second)
	assert.Zero(t, r.calls, "no draw expected when a valid record exists")
}

func TestResolve_DrawsOnceThenSticks(t *testing.T) {
	r := &countingRand{values: []float64{0.75, 0.1}}
	e := newEngine(t, split.Options{Rand: r.next})
	store := split.NewMemoryStore()

	first := e.Resolve(store, "")
	second := e.Resolve(store, "")

	assert.Equal(t, variant.Variant("b"), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.calls)

	stored, ok := store.Get("paywall_variant")
	require.True(t, ok)
	assert.Equal(t, "b", stored)
}

func TestResolve_OverrideWins(t *testing.T) {
	for _, override := range []string{"a", "b", "c", "d"} {
		t.Run(override, func(t *testing.T) {
			r := &countingRand{values: []float64{0.1}}
			e := newEngine(t, split.Options{Distribution: "25,25,25,25", Rand: r.next})
			store := split.NewMemoryStore()
			store.Set("paywall_variant", "d", time.Hour)
			if override == "d" {
				store.Set("paywall_variant", "a", time.Hour)
			}

			got := e.Resolve(store, override)

			assert.Equal(t, variant.Variant(override), got)
			assert.Zero(t, r.calls)
			stored, _ := store.Get("paywall_variant")
			assert.Equal(t, override, stored)
		})
	}
}

func TestResolve_InvalidOverrideIgnored(t *testing.T) {
	e := newEngine(t, split.Options{Rand: func() float64 { return 0.2 }})
	store := split.NewMemoryStore()

	assert.Equal(t, variant.Variant("a"), e.Resolve(store, "z"))
}

func TestResolve_InvalidRecordTriggersDraw(t *testing.T) {
	r := &countingRand{values: []float64{0.6}}
	e := newEngine(t, split.Options{Rand: r.next})
	store := split.NewMemoryStore()
	store.Set("paywall_variant", "z", time.Hour)

	got := e.Resolve(store, "")

	assert.Equal(t, variant.Variant("b"), got)
	assert.Equal(t, 1, r.calls)
	stored, _ := store.Get("paywall_variant")
	assert.Equal(t, "b", stored)
}

func TestResolve_HundredZeroAlwaysFirst(t *testing.T) {
	set, err := variant.ParseSet("a,b")
	require.NoError(t, err)

	for _, r := range []float64{0, 0.0001, 0.25, 0.5, 0.999999} {
		e := newEngine(t, split.Options{
			Distribution: "100,0",
			Variants:     set,
			Rand:         func() float64 { return r },
		})
		assert.Equal(t, variant.Variant("a"), e.Resolve(split.NewMemoryStore(), ""), "r=%v", r)
	}
}

func TestResolve_UnderweightFallsBackToFirst(t *testing.T) {
	e := newEngine(t, split.Options{Distribution: "10,10", Rand: func() float64 { return 0.5 }})

	assert.Equal(t, variant.Variant("a"), e.Resolve(split.NewMemoryStore(), ""))
}

func TestSetVariant(t *testing.T) {
	e := newEngine(t, split.Options{})
	store := split.NewMemoryStore()

	require.NoError(t, e.SetVariant(store, "c"))
	assert.Equal(t, variant.Variant("c"), e.Resolve(store, ""))

	err := e.SetVariant(store, "z")
	assert.ErrorIs(t, err, variant.ErrInvalidVariant)
	assert.Equal(t, variant.Variant("c"), e.Resolve(store, ""), "failed SetVariant must not change the record")
}

func TestClear(t *testing.T) {
	r := &countingRand{values: []float64{0.1, 0.9}}
	e := newEngine(t, split.Options{Rand: r.next})
	store := split.NewMemoryStore()

	assert.Equal(t, variant.Variant("a"), e.Resolve(store, ""))
	e.Clear(store)

	_, ok := store.Get("paywall_variant")
	assert.False(t, ok)
	assert.Equal(t, variant.Variant("b"), e.Resolve(store, ""))
	assert.Equal(t, 2, r.calls)
}

func TestResolve_ExpiredRecordRedraws(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := split.NewMemoryStore().WithClock(func() time.Time { return now })
	r := &countingRand{values: []float64{0.1, 0.9}}
	e := newEngine(t, split.Options{Expiration: 24 * time.Hour, Rand: r.next})

	assert.Equal(t, variant.Variant("a"), e.Resolve(store, ""))

	now = now.Add(25 * time.Hour)
	assert.Equal(t, variant.Variant("b"), e.Resolve(store, ""))
}
