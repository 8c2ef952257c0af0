package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"novelreel/internal/config"
	"novelreel/internal/locales"
	"novelreel/internal/routes"
	reelsdk "novelreel/sdk/go"
)

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect client and backend config",
		Long:  "novelreel.yml in the workspace configures the backend URL, request timeout, UI language and the stub backend. 'config remote' reads and overrides the running backend's settings.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configRemoteCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default novelreel.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// printFlat renders a flattened config map as a sorted key/value table.
func printFlat(flat map[string]any) error {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, table.Row{k, flat[k]})
	}
	return printTable(flat, table.Row{"Key", "Value"}, rows)
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective local config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			flat, err := config.Flatten(cfg)
			if err != nil {
				return err
			}
			if s, _ := flat["server.jwt_secret"].(string); s != "" {
				flat["server.jwt_secret"] = "******"
			}
			return printFlat(flat)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate novelreel.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

// parseSetting reads value as YAML so numbers, booleans and lists keep
// their type.
func parseSetting(pair string) (string, any, error) {
	k, raw, ok := strings.Cut(pair, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", nil, fmt.Errorf("invalid setting %q, want key=value", pair)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return "", nil, fmt.Errorf("setting %s: %w", k, err)
	}
	if v == nil {
		v = raw
	}
	return k, v, nil
}

func configRemoteCmd() *cobra.Command {
	remote := &cobra.Command{Use: "remote", Short: "Backend settings"}
	remote.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show backend settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				flat, err := c.Client.Admin().Config(ctx)
				if err != nil {
					return err
				}
				return printFlat(flat)
			})
		},
	})
	remote.AddCommand(&cobra.Command{
		Use:   "set <key=value>...",
		Short: "Override backend settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates := make(map[string]any, len(args))
			for _, pair := range args {
				k, v, err := parseSetting(pair)
				if err != nil {
					return err
				}
				updates[k] = v
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				res, err := c.Client.Admin().UpdateConfig(ctx, updates)
				if err != nil {
					return err
				}
				return printValue(res)
			})
		},
	})
	return remote
}

func routesCmd() *cobra.Command {
	r := &cobra.Command{Use: "routes", Short: "Inspect the front-end route table"}
	r.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List route patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			router := routes.Default()
			patterns := router.Patterns()
			rows := make([]table.Row, 0, len(patterns))
			for _, p := range patterns {
				rows = append(rows, table.Row{p.Pattern, p.Name, p.View, router.Layout(p.Pattern), p.Redirect})
			}
			return printTable(patterns, table.Row{"Pattern", "Name", "View", "Layout", "Redirect"}, rows)
		},
	})
	r.AddCommand(&cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path to its view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, ok := routes.Default().Resolve(args[0])
			if !ok {
				return fmt.Errorf("no route matches %s", args[0])
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			rows := []table.Row{{"pattern", res.Pattern}, {"name", res.Name}, {"view", res.View}}
			if res.Redirect != "" {
				rows = append(rows, table.Row{"redirect", res.Redirect})
			}
			keys := make([]string, 0, len(res.Params))
			for k := range res.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				rows = append(rows, table.Row{"param " + k, res.Params[k]})
			}
			return printTable(res, table.Row{"Field", "Value"}, rows)
		},
	})
	return r
}

func localeCmd() *cobra.Command {
	l := &cobra.Command{Use: "locale", Short: "Inspect UI message bundles"}
	l.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List selectable languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]table.Row, 0, len(locales.Locales))
			for _, loc := range locales.Locales {
				rows = append(rows, table.Row{loc.Value, loc.Name})
			}
			return printTable(locales.Locales, table.Row{"Value", "Name"}, rows)
		},
	})
	l.AddCommand(&cobra.Command{
		Use:   "show [language]",
		Short: "Print the messages of a language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			lang := language(cfg)
			if len(args) == 1 {
				lang = locales.Negotiate(args[0])
			}
			bundle := locales.MustLoad()
			keys := bundle.Keys(lang)
			msgs := make(map[string]string, len(keys))
			rows := make([]table.Row, 0, len(keys))
			for _, k := range keys {
				msgs[k] = bundle.Lookup(lang, k)
				rows = append(rows, table.Row{k, msgs[k]})
			}
			return printTable(msgs, table.Row{"Key", string(lang)}, rows)
		},
	})
	return l
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <subject>",
		Short: "Sign in to a development backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				if _, err := c.Client.Admin().DevLogin(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("signed in as", args[0])
				return nil
			})
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				return c.Client.Session.Remove(reelsdk.SessionTokenKey)
			})
		},
	}
}
