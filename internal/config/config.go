package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"novelreel/internal/locales"
)

// FileName is the workspace config file.
const FileName = "novelreel.yml"

// Config models novelreel.yml.
type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Locale string `yaml:"locale"`
	Server struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
		UIDir     string `yaml:"ui_dir"`
	} `yaml:"server"`
	Media struct {
		Workflows   []Workflow `yaml:"workflows"`
		StepDelayMS int        `yaml:"step_delay_ms"`
	} `yaml:"media"`
	Video struct {
		FPS          int     `yaml:"fps"`
		FadeDuration float64 `yaml:"fade_duration"`
		FontName     string  `yaml:"font_name"`
		FontSize     int     `yaml:"font_size"`
		Resolution   [2]int  `yaml:"resolution"`
	} `yaml:"video"`
}

// Workflow is an image generation workflow advertised by the stub backend.
type Workflow struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with reel config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns Default() if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := Load(workspace)
	if err != nil {
		if _, statErr := os.Stat(Path(workspace)); os.IsNotExist(statErr) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config.api.base_url scheme must be http or https")
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("config.api.timeout_seconds must not be negative")
	}
	if c.Locale != "" && !supportedLocale(c.Locale) {
		return fmt.Errorf("config.locale %s is not supported", c.Locale)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	seen := map[string]bool{}
	for _, wf := range c.Media.Workflows {
		if strings.TrimSpace(wf.Name) == "" {
			return fmt.Errorf("config.media.workflows contains an empty name")
		}
		if seen[wf.Name] {
			return fmt.Errorf("workflow %s defined twice", wf.Name)
		}
		seen[wf.Name] = true
	}
	if c.Video.FPS < 0 || c.Video.FontSize < 0 {
		return fmt.Errorf("config.video values must not be negative")
	}
	return nil
}

func supportedLocale(tag string) bool {
	for _, l := range locales.Locales {
		if string(l.Value) == tag {
			return true
		}
	}
	return false
}

// Timeout returns the client timeout; zero means the SDK default.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Language returns the configured UI language or the default one.
func (c *Config) Language() locales.Language {
	if c.Locale == "" {
		return locales.Default
	}
	return locales.Language(c.Locale)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys
// keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Flatten returns the config as dotted keys, e.g. "video.fps". Lists are
// kept as single values.
func Flatten(cfg *Config) (map[string]any, error) {
	tree, err := toTree(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	flatten("", tree, out)
	return out, nil
}

func toTree(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

// WithOverrides returns a copy of cfg with dotted-key values applied. Unknown
// keys and values that fail validation are rejected.
func WithOverrides(cfg *Config, overrides map[string]any) (*Config, error) {
	known, err := Flatten(cfg)
	if err != nil {
		return nil, err
	}
	tree, err := toTree(cfg)
	if err != nil {
		return nil, err
	}
	for key, v := range overrides {
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("unknown config key %s", key)
		}
		parts := strings.Split(key, ".")
		node := tree
		for _, p := range parts[:len(parts)-1] {
			node = node[p].(map[string]any)
		}
		node[parts[len(parts)-1]] = v
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `api:
  base_url: http://localhost:5000
  timeout_seconds: 10

locale: zh-CN

server:
  addr: 127.0.0.1:5000
  jwt_secret: ""
  ui_dir: ""

media:
  step_delay_ms: 200
  workflows:
    - name: default
      description: "Text to image, single pass"
    - name: portrait
      description: "Character portrait with face detail pass"

video:
  fps: 24
  fade_duration: 0.5
  font_name: NotoSansSC
  font_size: 36
  resolution: [1280, 720]
`
