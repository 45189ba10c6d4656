package internal

import (
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/filesnap/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestScannerConfig_Bounds(t *testing.T) {
	for _, n := range []int{0, -1, 1000} {
		cfg := ScannerConfig{Workers: n}
		if err := cfg.Validate(); err == nil {
			t.Errorf("workers=%d should fail validation", n)
		}
	}
}

func TestWatchConfig_NegativeDebounce(t *testing.T) {
	cfg := WatchConfig{Enabled: true, Debounce: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative debounce should fail validation")
	}
}

func TestWorkspaceConfig_ManifestPath(t *testing.T) {
	cfg := WorkspaceConfig{Root: "/work", Manifest: "filesnap.yaml"}
	if got := cfg.ManifestPath(); got != "/work/filesnap.yaml" {
		t.Errorf("ManifestPath = %q", got)
	}
	cfg.Manifest = "/etc/filesnap.yaml"
	if got := cfg.ManifestPath(); got != "/etc/filesnap.yaml" {
		t.Errorf("ManifestPath = %q", got)
	}
}

func TestConfig_DecodeYAML(t *testing.T) {
	cfg := NewDefaultConfig()
	data := []byte("workspace:\n  root: /work\n  manifest: tasks.yaml\nwatch:\n  enabled: false\n  debounce: 1s\n")
	if err := pkgconfig.Decode(data, cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Workspace.Root != "/work" || cfg.Watch.Enabled || cfg.Watch.Debounce != time.Second {
		t.Errorf("decoded config = %+v", cfg)
	}
	if cfg.Scanner.Workers != 8 {
		t.Errorf("defaults lost: workers = %d", cfg.Scanner.Workers)
	}
}
