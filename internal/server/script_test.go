package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/server"
	"github.com/paywall-split/paywall-split/internal/variant"
)

func TestGenerateScript_IsIIFE(t *testing.T) {
	script := server.GenerateScript(server.ScriptConfig{APIURL: "http://localhost:8080"})

	if !strings.HasPrefix(script, "(function(){") || !strings.HasSuffix(script, "})();") {
		t.Error("expected script to be an IIFE")
	}
}

func TestGenerateScript_Defaults(t *testing.T) {
	script := server.GenerateScript(server.ScriptConfig{APIURL: "http://localhost:8080"})

	for _, want := range []string{
		`window.PAYWALL_API_URL||"http://localhost:8080"`,
		`window.PAYWALL_COOKIE_NAME||"paywall_variant"`,
		`window.PAYWALL_DISTRIBUTION||"50,50"`,
		`window.PAYWALL_CONTAINER||"paywall-container"`,
		`window.PAYWALL_EXPIRATION||30`,
		`var V=["a","b","c","d"];`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %s", want)
		}
	}
}

func TestGenerateScript_ClientContract(t *testing.T) {
	script := server.GenerateScript(server.ScriptConfig{})

	for _, want := range []string{
		"data-variant",
		"data-assigned-variant",
		"button[data-plan-id]",
		"if(!(w[i]>0))continue;",
		"/events",
		"/variant?variant=",
		"/styles/paywall-",
		"SameSite=Strict",
		"window.PaywallSplit",
		"setVariant",
		"clearVariant",
		"trackConversion",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestGenerateScript_EscapesValues(t *testing.T) {
	script := server.GenerateScript(server.ScriptConfig{CookieName: `x"</script>`})

	if strings.Contains(script, `"</script>`) {
		t.Error("expected the cookie name to be escaped")
	}
}

func TestScriptHandler_UsesRequestHost(t *testing.T) {
	catalog, _ := content.NewCatalog(variant.DefaultSet(), content.MonthlyTiers())
	srv, _ := server.New(server.Options{Catalog: catalog, Script: server.ScriptConfig{Distribution: "25,25,25,25"}})

	req := httptest.NewRequest(http.MethodGet, "/paywall-split.js", nil)
	req.Host = "paywall.example:9000"
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("unexpected content type %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"http://paywall.example:9000"`) {
		t.Error("expected the request host as API URL")
	}
	if !strings.Contains(body, `"25,25,25,25"`) {
		t.Error("expected the configured distribution")
	}
}
