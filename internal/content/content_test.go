package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/variant"
)

func newCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.NewCatalog(variant.DefaultSet(), content.MonthlyTiers())
	require.NoError(t, err)
	return c
}

type fakeMount struct {
	override  string
	annotated variant.Variant
	html      string
	injects   int
}

func (m *fakeMount) Override() string           { return m.override }
func (m *fakeMount) Annotate(v variant.Variant) { m.annotated = v }
func (m *fakeMount) Inject(html string)         { m.html = html; m.injects++ }

func TestYearlyTiers(t *testing.T) {
	yearly := content.YearlyTiers(content.MonthlyTiers())

	want := map[string]string{
		"price_basic_yearly": "$86",
		"price_pro_yearly":   "$278",
		"price_team_yearly":  "$758",
	}
	require.Len(t, yearly, 3)
	for _, tier := range yearly {
		assert.Equal(t, "year", tier.Period)
		assert.Equal(t, want[tier.PlanID], tier.DisplayPrice(), tier.PlanID)
	}
}

func TestCatalog_RendersEveryVariant(t *testing.T) {
	c := newCatalog(t)

	for _, v := range variant.DefaultSet().Variants() {
		f := c.Lookup(v.String())
		assert.Equal(t, v, f.Variant)
		assert.Contains(t, f.HTML, `class="paywall-variant-`+v.String())
		assert.Contains(t, f.CSS, ".paywall-variant-"+v.String())
		assert.NotEmpty(t, content.Offers(f.HTML), "variant %s has no offers", v)
	}
}

func TestCatalog_UnknownFallsBackToFirst(t *testing.T) {
	c := newCatalog(t)

	f := c.Lookup("z")

	assert.Equal(t, variant.Variant("a"), f.Variant)
	assert.False(t, c.Has("z"))
	assert.True(t, c.Has("d"))
}

func TestCatalog_VariantOffers(t *testing.T) {
	c := newCatalog(t)

	assert.Equal(t,
		[]string{"price_basic_monthly", "price_pro_monthly", "price_team_monthly"},
		content.Offers(c.Lookup("a").HTML))
	assert.Equal(t, []string{"price_pro_yearly"}, content.Offers(c.Lookup("b").HTML))
	assert.Contains(t, c.Lookup("b").HTML, "$278/year")
}

func TestLoader_InjectsContent(t *testing.T) {
	c := newCatalog(t)
	l := content.NewLoader(content.LocalSource{Catalog: c}, nil)
	m := &fakeMount{}

	offers, err := l.Load(context.Background(), "b", m)

	require.NoError(t, err)
	assert.Equal(t, 1, m.injects)
	assert.Contains(t, m.html, "blurred-content")
	assert.Equal(t, []string{"price_pro_yearly"}, offers)
}

type failingSource struct{}

func (failingSource) Fetch(ctx context.Context, v variant.Variant) (string, error) {
	return "", errors.New("network down")
}

func TestLoader_FailureLeavesMountUntouched(t *testing.T) {
	l := content.NewLoader(failingSource{}, nil)
	m := &fakeMount{html: "<p>original</p>"}

	_, err := l.Load(context.Background(), "a", m)

	assert.Error(t, err)
	assert.Zero(t, m.injects)
	assert.Equal(t, "<p>original</p>", m.html)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/variant", r.URL.Path)
		json.NewEncoder(w).Encode(content.Response{
			Variant: r.URL.Query().Get("variant"),
			HTML:    `<div><button data-plan-id="p1">Go</button></div>`,
		})
	}))
	defer srv.Close()

	html, err := content.NewHTTPSource(srv.URL+"/", nil).Fetch(context.Background(), "c")

	require.NoError(t, err)
	assert.True(t, strings.Contains(html, `data-plan-id="p1"`))
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := content.NewHTTPSource(srv.URL, nil).Fetch(context.Background(), "a")

	assert.Error(t, err)
}
