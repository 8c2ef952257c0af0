package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	reelsdk "novelreel/sdk/go"
)

func characterCmd() *cobra.Command {
	ch := &cobra.Command{Use: "character", Short: "Manage the character library"}
	ch.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				list, err := c.Client.Characters().List(ctx, project)
				if err != nil {
					return err
				}
				return printCharacters(list.Characters, list.LockedEntities, list)
			})
		},
	})
	ch.AddCommand(characterUpdateCmd(func(c *cli) func(context.Context, string, reelsdk.UpdateCharacterParams) (string, error) {
		return c.Client.Characters().Update
	}, "update", "Update a character's attributes"))
	ch.AddCommand(lockCmd(func(c *cli) func(context.Context, string, string) (reelsdk.LockState, error) {
		return c.Client.Characters().ToggleLock
	}))
	ch.AddCommand(deleteEntityCmd("delete <name>", "Delete an unlocked character", func(c *cli) func(context.Context, string, string) error {
		return c.Client.Characters().Delete
	}))
	return ch
}

func entityCmd() *cobra.Command {
	ent := &cobra.Command{Use: "entity", Short: "Manage project entities"}

	chars := &cobra.Command{Use: "character", Short: "Character entities"}
	chars.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List character entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				list, err := c.Client.Entities().Characters(ctx, project)
				if err != nil {
					return err
				}
				return printCharacters(list.Characters, list.LockedEntities, list)
			})
		},
	})
	chars.AddCommand(characterUpdateCmd(func(c *cli) func(context.Context, string, reelsdk.UpdateCharacterParams) (string, error) {
		return c.Client.Entities().CreateCharacter
	}, "create", "Create a character"))
	chars.AddCommand(characterUpdateCmd(func(c *cli) func(context.Context, string, reelsdk.UpdateCharacterParams) (string, error) {
		return c.Client.Entities().UpdateCharacter
	}, "update", "Update a character"))
	chars.AddCommand(lockCmd(func(c *cli) func(context.Context, string, string) (reelsdk.LockState, error) {
		return c.Client.Entities().ToggleCharacterLock
	}))
	chars.AddCommand(deleteEntityCmd("delete <name>", "Delete a character", func(c *cli) func(context.Context, string, string) error {
		return c.Client.Entities().DeleteCharacter
	}))

	scenes := &cobra.Command{Use: "scene", Short: "Scene entities"}
	scenes.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				list, err := c.Client.Entities().Scenes(ctx, project)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(list.Scenes))
				for name := range list.Scenes {
					names = append(names, name)
				}
				sort.Strings(names)
				rows := make([]table.Row, 0, len(names))
				for _, name := range names {
					rows = append(rows, table.Row{name, clip(list.Scenes[name], 60)})
				}
				return printTable(list, table.Row{"Scene", "Prompt"}, rows)
			})
		},
	})
	scenes.AddCommand(sceneWriteCmd("create", "Create a scene", func(c *cli) func(context.Context, string, reelsdk.UpdateSceneParams) error {
		return c.Client.Entities().CreateScene
	}))
	scenes.AddCommand(sceneWriteCmd("update", "Update a scene prompt", func(c *cli) func(context.Context, string, reelsdk.UpdateSceneParams) error {
		return c.Client.Entities().UpdateScene
	}))
	scenes.AddCommand(deleteEntityCmd("delete <name>", "Delete a scene", func(c *cli) func(context.Context, string, string) error {
		return c.Client.Entities().DeleteScene
	}))

	ent.AddCommand(chars, scenes)
	return ent
}

func printCharacters(chars []reelsdk.Character, locked []string, v any) error {
	isLocked := make(map[string]bool, len(locked))
	for _, name := range locked {
		isLocked[name] = true
	}
	rows := make([]table.Row, 0, len(chars))
	for _, ch := range chars {
		rows = append(rows, table.Row{ch.Name, ch.Attributes.Role(), clip(ch.Attributes.Description(), 50), isLocked[ch.Name]})
	}
	return printTable(v, table.Row{"Name", "Role", "Description", "Locked"}, rows)
}

// parseAttrs turns key=value pairs into character attributes.
func parseAttrs(pairs []string) (reelsdk.CharacterAttributes, error) {
	attrs := reelsdk.CharacterAttributes{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, want key=value", p)
		}
		attrs[k] = v
	}
	return attrs, nil
}

func characterUpdateCmd(call func(*cli) func(context.Context, string, reelsdk.UpdateCharacterParams) (string, error), use, short string) *cobra.Command {
	var role, description string
	var attrs []string
	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAttrs(attrs)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("role") {
				parsed["role"] = role
			}
			if cmd.Flags().Changed("description") {
				parsed["description"] = description
			}
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				msg, err := call(c)(ctx, project, reelsdk.UpdateCharacterParams{Name: args[0], Attributes: parsed})
				if err != nil {
					return err
				}
				return printValue(msg)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "character role")
	cmd.Flags().StringVar(&description, "description", "", "appearance and personality")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "extra attribute key=value (repeatable)")
	return cmd
}

func lockCmd(call func(*cli) func(context.Context, string, string) (reelsdk.LockState, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <name>",
		Short: "Toggle the lock on a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				state, err := call(c)(ctx, project, args[0])
				if err != nil {
					return err
				}
				if state.IsLocked {
					c.say("character.locked", nil)
				} else {
					c.say("character.unlocked", nil)
				}
				return printValue(state)
			})
		},
	}
}

func deleteEntityCmd(use, short string, call func(*cli) func(context.Context, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				return call(c)(ctx, project, args[0])
			})
		},
	}
}

func sceneWriteCmd(use, short string, call func(*cli) func(context.Context, string, reelsdk.UpdateSceneParams) error) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				return call(c)(ctx, project, reelsdk.UpdateSceneParams{Name: args[0], Prompt: prompt})
			})
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "scene image prompt")
	return cmd
}
