package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"novelreel/internal/app"
)

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectRenameCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectInfoCmd())
	prj.AddCommand(projectGraphCmd())
	prj.AddCommand(projectUseCmd())
	prj.AddCommand(projectLogCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				names, err := c.Client.Projects().List(ctx)
				if err != nil {
					return err
				}
				if len(names) == 0 && !viper.GetBool("json") {
					c.say("project.none", nil)
					return nil
				}
				rows := make([]table.Row, 0, len(names))
				for _, n := range names {
					rows = append(rows, table.Row{n})
				}
				return printTable(names, table.Row{"Project"}, rows)
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project with an empty first chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				created, err := c.Client.Projects().Create(ctx, args[0])
				if err != nil {
					return err
				}
				if use {
					if err := app.SetEnvValue(c.Workspace, app.DefaultProjectKey, created.ProjectName); err != nil {
						return err
					}
				}
				c.say("project.created", nil)
				return printValue(created)
			})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "make it the active project")
	return cmd
}

func projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				res, err := c.Client.Projects().Update(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				// keep the workspace default pointing at the project
				if active, _ := c.project(); active == args[0] {
					if err := app.SetEnvValue(c.Workspace, app.DefaultProjectKey, args[1]); err != nil {
						return err
					}
				}
				c.say("project.renamed", nil)
				return printValue(res)
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a project and all generated media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("deleting %s removes every chapter and asset; rerun with --force", args[0])
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				if err := c.Client.Projects().Delete(ctx, args[0]); err != nil {
					return err
				}
				c.say("project.deleted", nil)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}

func projectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show chapters and span status of the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				info, err := c.Client.Projects().Info(ctx, project)
				if err != nil {
					return err
				}
				var rows []table.Row
				for _, ch := range info.Chapters {
					if len(ch.Spans) == 0 {
						rows = append(rows, table.Row{ch.ID, "-", "", "", "", ""})
					}
					for _, sp := range ch.Spans {
						rows = append(rows, table.Row{ch.ID, sp.ID, sp.HasContent, sp.HasPrompt,
							strings.Join(sp.Images, ","), strings.Join(sp.Audios, ",")})
					}
				}
				return printTable(info, table.Row{"Chapter", "Span", "Content", "Prompt", "Images", "Audio"}, rows)
			})
		},
	}
}

func projectGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kg",
		Short: "Show character relationships of the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				kg, err := c.Client.Projects().KnowledgeGraph(ctx, project)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(kg.Relationships))
				for _, r := range kg.Relationships {
					rel, _ := r.(map[string]any)
					rows = append(rows, table.Row{rel["source"], rel["target"], rel["type"], rel["weight"]})
				}
				return printTable(kg, table.Row{"Source", "Target", "Type", "Weight"}, rows)
			})
		},
	}
}

func projectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the active project for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("project name is required")
			}
			workspace := viper.GetString("workspace")
			if err := app.SetEnvValue(workspace, app.DefaultProjectKey, name); err != nil {
				return err
			}
			fmt.Printf("Set %s=%s in %s/%s\n", app.DefaultProjectKey, name, workspace, app.EnvFile)
			return nil
		},
	}
}

func projectLogCmd() *cobra.Command {
	var n int
	var cursor int64
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the activity log of the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				events, err := c.Client.Projects().Events(ctx, project, n, cursor)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(events))
				for _, e := range events {
					rows = append(rows, table.Row{e.ID, e.TS, e.Type, e.EntityKind + ":" + e.EntityID, e.ActorID})
				}
				return printTable(events, table.Row{"ID", "Time", "Type", "Entity", "Actor"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().Int64Var(&cursor, "before", 0, "show events older than this id")
	return cmd
}
