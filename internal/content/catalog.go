// Package content holds the paywall markup for each variant and loads it
// into a mount point.
package content

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/paywall-split/paywall-split/internal/variant"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed styles/*.css
var styleFS embed.FS

// Layouts are assigned to variants by position, wrapping around when the
// set has more variants than layouts.
var layouts = []layout{
	{
		name:     "toggle",
		title:    "Choose Your Plan",
		subtitle: "Start with a flexible monthly plan or save with annual billing.",
	},
	{
		name:     "blur",
		title:    "This content is exclusive to premium members",
		subtitle: "Subscribe now to unlock this and all other premium content.",
		featured: func(_, yearly []Tier) Tier { return yearly[1] },
	},
	{
		name:     "cards",
		title:    "Unlock Premium Content",
		subtitle: "Get full access to all premium features with our subscription plans.",
	},
	{
		name:     "minimal",
		title:    "Upgrade to Premium",
		featured: func(monthly, _ []Tier) Tier { return monthly[1] },
	},
}

type layout struct {
	name     string
	title    string
	subtitle string
	featured func(monthly, yearly []Tier) Tier
}

type renderData struct {
	Variant  string
	Title    string
	Subtitle string
	Monthly  []Tier
	Yearly   []Tier
	Featured *Tier
}

// Fragment is the rendered paywall for one variant.
type Fragment struct {
	Variant variant.Variant
	HTML    string
	CSS     string
}

// Catalog renders the markup and styling of every variant in a set.
type Catalog struct {
	variants  variant.Set
	fragments map[variant.Variant]Fragment
}

// NewCatalog pre-renders every variant of set with the given plans.
func NewCatalog(set variant.Set, monthly []Tier) (*Catalog, error) {
	if len(monthly) < 2 {
		return nil, fmt.Errorf("catalog needs at least 2 tiers, got %d", len(monthly))
	}
	yearly := YearlyTiers(monthly)

	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	css, err := texttemplate.ParseFS(styleFS, "styles/*.css")
	if err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}

	c := &Catalog{variants: set, fragments: make(map[variant.Variant]Fragment, set.Len())}
	for i, v := range set.Variants() {
		l := layouts[i%len(layouts)]
		data := renderData{
			Variant:  v.String(),
			Title:    l.title,
			Subtitle: l.subtitle,
			Monthly:  monthly,
			Yearly:   yearly,
		}
		if l.featured != nil {
			t := l.featured(monthly, yearly)
			data.Featured = &t
		}

		var htmlBuf, cssBuf bytes.Buffer
		if err := html.ExecuteTemplate(&htmlBuf, l.name+".html", data); err != nil {
			return nil, fmt.Errorf("failed to render variant %s: %w", v, err)
		}
		if err := css.ExecuteTemplate(&cssBuf, l.name+".css", data); err != nil {
			return nil, fmt.Errorf("failed to render styles for variant %s: %w", v, err)
		}

		c.fragments[v] = Fragment{Variant: v, HTML: htmlBuf.String(), CSS: cssBuf.String()}
	}

	return c, nil
}

// Lookup returns the fragment for symbol. Unknown symbols get the first
// variant's fragment.
func (c *Catalog) Lookup(symbol string) Fragment {
	if f, ok := c.fragments[variant.Variant(symbol)]; ok {
		return f
	}
	return c.fragments[c.variants.First()]
}

// Has reports whether symbol is a variant of the catalog.
func (c *Catalog) Has(symbol string) bool {
	_, ok := c.fragments[variant.Variant(symbol)]
	return ok
}
