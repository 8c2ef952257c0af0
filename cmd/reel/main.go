package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"novelreel/internal/app"
	"novelreel/internal/config"
	"novelreel/internal/db"
	"novelreel/internal/locales"
	"novelreel/internal/migrate"
	"novelreel/internal/repo"
	reelsdk "novelreel/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "reel",
	Short: "novelreel CLI",
	Long: `reel drives a novelreel backend: write chapters, split them into spans,
generate images and narration per span, and render chapter videos.

- Workspace: a directory holding novelreel.yml, .env and .novelreel/ (session and stub backend state).
- Project: a novel. Set the active one with 'reel project use <name>' or --project.
- Chapter: chapter1, chapter2, ... in reading order.
- Span: a short narration unit of a chapter with its scene description and image prompt.
- 'reel serve' starts a local stub backend for development.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := db.EnsureWorkspace(viper.GetString("workspace"))
		return err
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !alreadyReported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// alreadyReported reports whether the notifier has printed err.
func alreadyReported(err error) bool {
	var envErr *reelsdk.EnvelopeError
	var apiErr *reelsdk.APIError
	return errors.As(err, &envErr) || errors.As(err, &apiErr)
}

func initConfig() {
	viper.SetEnvPrefix("NOVELREEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("project", "", "project name (overrides the workspace default)")
	flags.String("base-url", "", "backend URL (overrides api.base_url)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("locale", "", "message language, e.g. zh-CN or en-US")
	for _, name := range []string{"workspace", "json", "project", "base-url", "log-level", "locale"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(chapterCmd())
	rootCmd.AddCommand(characterCmd())
	rootCmd.AddCommand(entityCmd())
	rootCmd.AddCommand(mediaCmd())
	rootCmd.AddCommand(videoCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(localeCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(serveCmd())
}

// cli is the per-command runtime: the SDK client plus what it was built from.
type cli struct {
	Workspace string
	Config    *config.Config
	Client    *reelsdk.Client
	Notifier  *app.Notifier
	Logger    *slog.Logger
}

func (c *cli) project() (string, error) {
	return app.ResolveProject(c.Workspace, viper.GetString("project"))
}

func (c *cli) say(key string, args map[string]any) {
	if !viper.GetBool("json") {
		c.Notifier.Say(key, args)
	}
}

func loadConfig(workspace string) (*config.Config, error) {
	return config.LoadOptional(workspace)
}

func language(cfg *config.Config) locales.Language {
	if l := strings.TrimSpace(viper.GetString("locale")); l != "" {
		return locales.Negotiate(l)
	}
	return cfg.Language()
}

func newLogger() (*slog.Logger, error) {
	return app.NewLogger(os.Stderr, viper.GetString("log-level"))
}

// withClient opens the workspace session store and runs fn with a client.
func withClient(ctx context.Context, fn func(context.Context, *cli) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := loadConfig(workspace)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(ctx, conn); err != nil {
		return err
	}
	notifier := app.NewNotifier(locales.MustLoad(), language(cfg), os.Stderr)
	client := app.NewClient(app.ClientOptions{
		Config:   cfg,
		BaseURL:  viper.GetString("base-url"),
		Session:  app.SessionStore{Repo: repo.Repo{DB: conn}, Ctx: ctx},
		Notifier: notifier,
		Logger:   logger,
	})
	return fn(ctx, &cli{Workspace: workspace, Config: cfg, Client: client, Notifier: notifier, Logger: logger})
}

// withProject is withClient for commands scoped to the active project.
func withProject(ctx context.Context, fn func(context.Context, *cli, string) error) error {
	return withClient(ctx, func(ctx context.Context, c *cli) error {
		project, err := c.project()
		if err != nil {
			return err
		}
		return fn(ctx, c, project)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders rows, or v as JSON when --json is set.
func printTable(v any, header table.Row, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func printValue(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	switch s := v.(type) {
	case string:
		fmt.Println(s)
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// clip shortens s to n runes for table cells.
func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
