package snippets

import (
	"strings"
	"testing"
)

func TestGenerate_HTML(t *testing.T) {
	files, err := Generate(FrameworkHTML, Config{
		ServerURL:    "https://paywall.example/",
		Distribution: "25,25,25,25",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].Filename != "index.html" {
		t.Fatalf("unexpected files %+v", files)
	}

	for _, want := range []string{
		`window.PAYWALL_DISTRIBUTION = "25,25,25,25";`,
		`window.PAYWALL_COOKIE_NAME = "paywall_variant";`,
		`<script src="https://paywall.example/paywall-split.js" defer></script>`,
		`<div id="paywall-container"></div>`,
	} {
		if !strings.Contains(files[0].Content, want) {
			t.Errorf("missing %s\n\nGot:\n%s", want, files[0].Content)
		}
	}
}

func TestGenerate_NextJS(t *testing.T) {
	files, err := Generate(FrameworkNextJS, Config{ServerURL: "http://localhost:8080", Container: "#paywall"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if !strings.Contains(files[0].Content, `<Script src="http://localhost:8080/paywall-split.js" strategy="afterInteractive" />`) {
		t.Errorf("layout is missing the script tag:\n%s", files[0].Content)
	}
	if !strings.Contains(files[1].Content, `<div id="paywall" />`) {
		t.Errorf("component is missing the container:\n%s", files[1].Content)
	}
}

func TestGenerate_ServerPinsVariant(t *testing.T) {
	files, err := Generate(FrameworkServer, Config{ServerURL: "http://localhost:8080", PinnedVariant: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(files[0].Content, `<div id="paywall-container" data-variant="b"></div>`) {
		t.Errorf("expected pinned container:\n%s", files[0].Content)
	}
}

func TestGenerate_UnknownFramework(t *testing.T) {
	if _, err := Generate("cobol", Config{}); err == nil {
		t.Error("expected error for unknown framework")
	}
}
