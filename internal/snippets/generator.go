// Package snippets renders copy-paste embed code for the paywall script.
package snippets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

type Framework string

const (
	FrameworkHTML   Framework = "html"
	FrameworkNextJS Framework = "nextjs"
	FrameworkServer Framework = "server"
)

// Frameworks lists the supported frameworks in prompt order.
var Frameworks = []Framework{FrameworkHTML, FrameworkNextJS, FrameworkServer}

func (f Framework) Label() string {
	switch f {
	case FrameworkHTML:
		return "HTML (vanilla JavaScript)"
	case FrameworkNextJS:
		return "React / Next.js"
	case FrameworkServer:
		return "Server-rendered (pin the variant yourself)"
	default:
		return string(f)
	}
}

type Config struct {
	ServerURL    string
	Distribution string
	CookieName   string
	Container    string
	// PinnedVariant is written as the container's data-variant, if set.
	PinnedVariant string
}

type SnippetFile struct {
	Filename string
	Content  string
}

type templateData struct {
	ServerURL        string
	DistributionJSON string
	CookieJSON       string
	Container        string
	ContainerJSON    string
	Pinned           string
}

var htmlTemplate = template.Must(template.New("html").Parse(`<script>
  window.PAYWALL_DISTRIBUTION = {{.DistributionJSON}};
  window.PAYWALL_COOKIE_NAME = {{.CookieJSON}};
  window.PAYWALL_CONTAINER = {{.ContainerJSON}};
</script>
<script src="{{.ServerURL}}/paywall-split.js" defer></script>

<div id="{{.Container}}"{{if .Pinned}} data-variant="{{.Pinned}}"{{end}}></div>
`))

var nextTemplate = template.Must(template.New("nextjs").Parse(`import Script from 'next/script'

export default function RootLayout({ children }) {
  return (
    <html lang="en">
      <body>
        {children}
        <Script id="paywall-config" strategy="beforeInteractive">
          {` + "`" + `window.PAYWALL_DISTRIBUTION = {{.DistributionJSON}}; window.PAYWALL_COOKIE_NAME = {{.CookieJSON}}; window.PAYWALL_CONTAINER = {{.ContainerJSON}};` + "`" + `}
        </Script>
        <Script src="{{.ServerURL}}/paywall-split.js" strategy="afterInteractive" />
      </body>
    </html>
  )
}
`))

var containerTemplate = template.Must(template.New("container").Parse(`export function Paywall() {
  return <div id="{{.Container}}"{{if .Pinned}} data-variant="{{.Pinned}}"{{end}} />
}
`))

var serverTemplate = template.Must(template.New("server").Parse(`<!-- Resolve the variant on the server and pin it on the container.
     The script still records the impression and loads the markup. -->
<script src="{{.ServerURL}}/paywall-split.js" defer></script>

<div id="{{.Container}}" data-variant="{{if .Pinned}}{{.Pinned}}{{else}}VARIANT{{end}}"></div>
`))

// Generate returns the files to add for framework.
func Generate(framework Framework, config Config) ([]SnippetFile, error) {
	data := buildTemplateData(config)

	switch framework {
	case FrameworkHTML:
		return render(data, file{"index.html", htmlTemplate})
	case FrameworkNextJS:
		return render(data,
			file{"app/layout.tsx", nextTemplate},
			file{"components/Paywall.tsx", containerTemplate},
		)
	case FrameworkServer:
		return render(data, file{"template.html", serverTemplate})
	default:
		return nil, fmt.Errorf("unknown framework %q", framework)
	}
}

type file struct {
	name string
	tmpl *template.Template
}

func render(data templateData, files ...file) ([]SnippetFile, error) {
	out := make([]SnippetFile, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", f.name, err)
		}
		out = append(out, SnippetFile{Filename: f.name, Content: buf.String()})
	}
	return out, nil
}

func buildTemplateData(config Config) templateData {
	if config.Distribution == "" {
		config.Distribution = "50,50"
	}
	if config.CookieName == "" {
		config.CookieName = "paywall_variant"
	}
	container := strings.TrimPrefix(config.Container, "#")
	if container == "" {
		container = "paywall-container"
	}

	return templateData{
		ServerURL:        strings.TrimRight(config.ServerURL, "/"),
		DistributionJSON: toJSON(config.Distribution),
		CookieJSON:       toJSON(config.CookieName),
		Container:        container,
		ContainerJSON:    toJSON(container),
		Pinned:           config.PinnedVariant,
	}
}

func toJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
