package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"novelreel/internal/config"
	reelsdk "novelreel/sdk/go"
)

// EnvFile is the workspace dotenv file holding CLI defaults.
const EnvFile = ".env"

// DefaultProjectKey names the active project in the environment and .env.
const DefaultProjectKey = "NOVELREEL_DEFAULT_PROJECT"

// ReadEnv returns the workspace .env values; a missing file yields none.
func ReadEnv(workspace string) (map[string]string, error) {
	values, err := godotenv.Read(filepath.Join(workspace, EnvFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", EnvFile, err)
	}
	return values, nil
}

// SetEnvValue stores key=value in the workspace .env, keeping other keys.
func SetEnvValue(workspace, key, value string) error {
	values, err := ReadEnv(workspace)
	if err != nil {
		return err
	}
	values[key] = value
	return godotenv.Write(values, filepath.Join(workspace, EnvFile))
}

// ResolveProject picks the active project: the explicit override, then the
// process environment, then the workspace .env.
func ResolveProject(workspace, override string) (string, error) {
	if p := strings.TrimSpace(override); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(DefaultProjectKey)); p != "" {
		return p, nil
	}
	values, err := ReadEnv(workspace)
	if err != nil {
		return "", err
	}
	if p := strings.TrimSpace(values[DefaultProjectKey]); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("project not specified; use --project or reel project use <name>")
}

// NewLogger returns a text logger at the named level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// ClientOptions assemble an SDK client for the CLI.
type ClientOptions struct {
	Config   *config.Config
	BaseURL  string
	Session  reelsdk.SessionStore
	Notifier *Notifier
	Logger   *slog.Logger
}

// NewClient builds an SDK client. An explicit BaseURL wins over the config;
// a zero config timeout keeps the SDK default.
func NewClient(opts ClientOptions) *reelsdk.Client {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" && opts.Config != nil {
		base = opts.Config.API.BaseURL
	}
	c := reelsdk.New(base)
	if opts.Config != nil && opts.Config.Timeout() > 0 {
		c.Timeout = opts.Config.Timeout()
	}
	if opts.Session != nil {
		c.Session = opts.Session
	}
	if opts.Notifier != nil {
		c.Notifier = opts.Notifier
		c.Messages = opts.Notifier.Messages()
	}
	c.Logger = opts.Logger
	return c
}
