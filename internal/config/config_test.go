package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:5000" || cfg.Timeout() != 10*time.Second {
		t.Fatalf("unexpected api defaults %+v", cfg.API)
	}
	if len(cfg.Media.Workflows) != 2 || cfg.Video.Resolution != [2]int{1280, 720} {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Media, cfg.Video)
	}
}

func TestFromYAMLOverlaysDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("api:\n  base_url: https://reel.example.com\nlocale: en-US\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.API.BaseURL != "https://reel.example.com" || cfg.API.TimeoutSeconds != 10 {
		t.Fatalf("unexpected api %+v", cfg.API)
	}
	if cfg.Language() != "en-US" {
		t.Fatalf("unexpected language %s", cfg.Language())
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"relative url":  "api:\n  base_url: /api\n",
		"bad scheme":    "api:\n  base_url: ftp://host\n",
		"bad locale":    "locale: fr-FR\n",
		"no addr":       "server:\n  addr: \"\"\n",
		"dup workflows": "media:\n  workflows:\n    - name: a\n    - name: a\n",
		"not yaml":      "api: [",
	}
	for name, doc := range cases {
		if _, err := FromYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:5000" {
		t.Fatalf("expected defaults, got %+v", cfg.Server)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("locale: bogus\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadOptional(dir); err == nil {
		t.Fatalf("expected validation error for existing file")
	}
}
