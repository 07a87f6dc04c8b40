package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""), "clausegen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != FormatText {
		t.Errorf("format = %q, want %q", cfg.Format, FormatText)
	}
	if cfg.Color != ColorAuto {
		t.Errorf("color = %q, want %q", cfg.Color, ColorAuto)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("serve.addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if cfg.Cache.Path != "" {
		t.Errorf("cache.path = %q, want empty", cfg.Cache.Path)
	}
}

func TestParseConfig_Full(t *testing.T) {
	yaml := `
format: datalog
color: never
log:
  level: debug
cache:
  path: .clausegen/dumps.db
serve:
  addr: 0.0.0.0:9000
  metrics_addr: 0.0.0.0:9001
`
	cfg, err := ParseConfig([]byte(yaml), filepath.Join("proj", "clausegen.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != FormatDatalog || cfg.Color != ColorNever || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if want := filepath.Join("proj", ".clausegen", "dumps.db"); cfg.Cache.Path != want {
		t.Errorf("cache.path = %q, want %q", cfg.Cache.Path, want)
	}
	if cfg.Serve.MetricsAddr != "0.0.0.0:9001" {
		t.Errorf("serve.metrics_addr = %q", cfg.Serve.MetricsAddr)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"format", "format: html", `format "html"`},
		{"color", "color: rainbow", `color "rainbow"`},
		{"level", "log:\n  level: loud", `log.level "loud"`},
		{"same addr", "serve:\n  addr: :1\n  metrics_addr: :1", "must differ"},
		{"syntax", "format: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "bad.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if !strings.Contains(err.Error(), "bad.yaml") {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "clausegen.yml")
	if err := os.WriteFile(path, []byte("color: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Errorf("found %q, want %q", found, path)
	}

	cfg, got, err := Discover(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path || cfg.Color != ColorAlways {
		t.Errorf("discover = %q %+v", got, cfg)
	}
}

func TestDiscover_NoFile(t *testing.T) {
	dir := t.TempDir()
	path, err := FindConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		// A clausegen.yaml above the temp dir would leak into this test.
		t.Skipf("found unrelated config %s", path)
	}
	cfg, _, err := Discover(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != DefaultFormat {
		t.Errorf("format = %q", cfg.Format)
	}
}
