package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/paywall"
	"github.com/paywall-split/paywall-split/internal/split"
)

type demoData struct {
	Variant    string
	CSS        template.CSS
	Container  template.HTML
	Offers     []string
	Subscribed string
}

var demoTemplate = template.Must(template.New("demo").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Paywall demo - variant {{.Variant}}</title>
<style>
body { font-family: system-ui, -apple-system, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
.demo-offers form { display: inline-block; margin: 0.25rem; }
.demo-notice { padding: 0.75rem 1rem; background: #ecfdf5; border-radius: 0.5rem; }
{{.CSS}}
</style>
</head>
<body>
<header>
  <h1>Paywall demo</h1>
  <p>You are seeing variant <strong>{{.Variant}}</strong>. Add <code>?variant=a</code> to pin another one.</p>
</header>
{{- if .Subscribed}}
<p class="demo-notice">Thanks! Conversion recorded for plan <code>{{.Subscribed}}</code>.</p>
{{- end}}
<article>
  <h2>Exclusive Premium Content</h2>
  <p>This is a sample of the premium content that sits behind the paywall.</p>
</article>
{{.Container}}
{{- if .Offers}}
<section class="demo-offers">
  <h3>Subscribe</h3>
  {{- range .Offers}}
  <form method="post" action="/demo/subscribe">
    <input type="hidden" name="variant" value="{{$.Variant}}">
    <input type="hidden" name="plan_id" value="{{.}}">
    <button type="submit">{{.}}</button>
  </form>
  {{- end}}
</section>
{{- end}}
</body>
</html>
`))

// handleDemo renders a page with the paywall mounted server side. The
// variant query parameter plays the role of the mount's pinned variant.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	store := split.NewCookieStore(w, r)
	container := paywall.NewContainer(s.script.Container, r.URL.Query().Get("variant"))

	res := s.paywall.Mount(r.Context(), container, store, pageURL(r))

	data := demoData{
		Variant:    res.Variant.String(),
		CSS:        template.CSS(s.catalog.Lookup(res.Variant.String()).CSS),
		Container:  container.HTML(),
		Offers:     res.Offers,
		Subscribed: r.URL.Query().Get("subscribed"),
	}

	var buf bytes.Buffer
	if err := demoTemplate.Execute(&buf, data); err != nil {
		s.log.Error("failed to render demo page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) handleDemoSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	v, err := s.variants.Parse(r.PostForm.Get("variant"))
	if err != nil {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}
	planID := r.PostForm.Get("plan_id")
	if planID == "" {
		http.Error(w, "plan_id is required", http.StatusBadRequest)
		return
	}

	s.paywall.Convert(r.Context(), v, planID, pageURL(r))

	http.Redirect(w, r, "/demo?subscribed="+url.QueryEscape(planID), http.StatusSeeOther)
}

func pageURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	return u.String()
}
