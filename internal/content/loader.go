package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/variant"
)

// Source provides the markup for a variant.
type Source interface {
	Fetch(ctx context.Context, v variant.Variant) (string, error)
}

// LocalSource serves markup straight from a Catalog.
type LocalSource struct {
	Catalog *Catalog
}

func (s LocalSource) Fetch(ctx context.Context, v variant.Variant) (string, error) {
	return s.Catalog.Lookup(v.String()).HTML, nil
}

// Response is the body of the collector's /variant endpoint.
type Response struct {
	Variant string `json:"variant"`
	HTML    string `json:"html"`
}

// HTTPSource fetches markup from <collector>/variant?variant=<v>.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSource(collectorURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{
		endpoint: strings.TrimRight(collectorURL, "/") + "/variant",
		client:   client,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, v variant.Variant) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?variant="+url.QueryEscape(v.String()), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch variant content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("fetch variant content: status %d", resp.StatusCode)
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode variant content: %w", err)
	}
	return body.HTML, nil
}

// Mount is the container a paywall is rendered into.
type Mount interface {
	// Override returns the variant pinned by the embedding page, if any.
	Override() string
	// Annotate marks the mount with the resolved variant.
	Annotate(v variant.Variant)
	// Inject replaces the mount's content.
	Inject(html string)
}

var ErrEmptyContent = errors.New("variant content is empty")

var planIDPattern = regexp.MustCompile(`<button[^>]*\sdata-plan-id="([^"]+)"`)

// Offers lists the plan ids of the subscribe controls in markup, in order.
func Offers(html string) []string {
	var ids []string
	for _, m := range planIDPattern.FindAllStringSubmatch(html, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// Loader fetches a variant's markup and injects it into a mount.
type Loader struct {
	source Source
	log    *zap.Logger
}

func NewLoader(source Source, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{source: source, log: log}
}

// Load injects the markup for v into m and returns the offers it contains.
// On failure the mount is left untouched and the error is logged.
func (l *Loader) Load(ctx context.Context, v variant.Variant, m Mount) ([]string, error) {
	html, err := l.source.Fetch(ctx, v)
	if err == nil && strings.TrimSpace(html) == "" {
		err = ErrEmptyContent
	}
	if err != nil {
		l.log.Error("failed to load paywall content", zap.String("variant", v.String()), zap.Error(err))
		return nil, err
	}

	m.Inject(html)
	return Offers(html), nil
}
