package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reelsdk "novelreel/sdk/go"
)

func chapterCmd() *cobra.Command {
	ch := &cobra.Command{Use: "chapter", Short: "Write and split chapters"}
	ch.AddCommand(chapterListCmd())
	ch.AddCommand(chapterShowCmd())
	ch.AddCommand(chapterCreateCmd())
	ch.AddCommand(chapterSaveCmd())
	ch.AddCommand(chapterGenerateCmd())
	ch.AddCommand(chapterSplitCmd())
	ch.AddCommand(chapterScenesCmd())
	ch.AddCommand(chapterEditSpanCmd())
	ch.AddCommand(chapterExtractCmd())
	ch.AddCommand(chapterTranslateCmd())
	ch.AddCommand(chapterImportCmd())
	return ch
}

func chapterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chapters of the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				chapters, err := c.Client.Chapters().List(ctx, project)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(chapters))
				for _, name := range chapters {
					rows = append(rows, table.Row{name})
				}
				return printTable(chapters, table.Row{"Chapter"}, rows)
			})
		},
	}
}

func chapterShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chapter>",
		Short: "Print chapter text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				content, err := c.Client.Chapters().Content(ctx, project, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(content)
				}
				fmt.Println(content.Content)
				return nil
			})
		},
	}
}

func chapterCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Append an empty chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				created, err := c.Client.Chapters().Create(ctx, project)
				if err != nil {
					return err
				}
				c.say("chapter.created", nil)
				return printValue(created.Chapter)
			})
		},
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func chapterSaveCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <chapter>",
		Short: "Replace chapter text from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			data, err := readInput(file)
			if err != nil {
				return err
			}
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				err := c.Client.Chapters().Save(ctx, reelsdk.SaveChapterRequest{
					ProjectName: project,
					ChapterName: args[0],
					Content:     string(data),
				})
				if err != nil {
					return err
				}
				c.say("chapter.saved", nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "text file to save (- for stdin)")
	return cmd
}

func chapterGenerateCmd() *cobra.Command {
	var prompt string
	var continuation, useLast, save bool
	cmd := &cobra.Command{
		Use:   "generate <chapter>",
		Short: "Stream AI-written text for a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				generated, err := streamChapter(ctx, c.Client, reelsdk.GenerateChapterRequest{
					ProjectName:    project,
					ChapterName:    args[0],
					Prompt:         prompt,
					IsContinuation: continuation,
					UseLastChapter: useLast,
				}, os.Stdout)
				if err != nil {
					return err
				}
				if !save {
					return nil
				}
				content := generated
				if continuation {
					prev, err := c.Client.Chapters().Content(ctx, project, args[0])
					if err != nil {
						return err
					}
					content = prev.Content + generated
				}
				if err := c.Client.Chapters().Save(ctx, reelsdk.SaveChapterRequest{
					ProjectName: project, ChapterName: args[0], Content: content,
				}); err != nil {
					return err
				}
				c.say("chapter.saved", nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "writing prompt")
	cmd.Flags().BoolVar(&continuation, "continue", false, "continue the existing chapter text")
	cmd.Flags().BoolVar(&useLast, "use-last", false, "use the previous chapter as context")
	cmd.Flags().BoolVar(&save, "save", false, "save the generated text to the chapter")
	return cmd
}

// streamChapter starts chapter generation and copies the text to w as it
// arrives. Rejections surface as the client's envelope or API errors.
func streamChapter(ctx context.Context, client *reelsdk.Client, req reelsdk.GenerateChapterRequest, w io.Writer) (string, error) {
	body, err := client.Chapters().Generate(ctx, req)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return printStream(reelsdk.NewEventReader(body), w)
}

// printStream copies text events to w as they arrive and returns the text.
// An "error" event ends the stream with its data as the error.
func printStream(events *reelsdk.EventReader, w io.Writer) (string, error) {
	var sb strings.Builder
	for {
		ev, err := events.Next()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(w)
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		switch ev.Name {
		case "error":
			return sb.String(), fmt.Errorf("generation failed: %s", ev.Data)
		case "", "message":
			sb.WriteString(ev.Data)
			fmt.Fprint(w, ev.Data)
		}
	}
}

func chapterSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <chapter>",
		Short: "Split chapter text into spans with scene prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				spans, err := c.Client.Chapters().Split(ctx, project, args[0])
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(spans))
				for i, sp := range spans {
					rows = append(rows, table.Row{i + 1, clip(sp.Content, 40), clip(sp.Scene, 30), clip(sp.Prompt, 40)})
				}
				return printTable(spans, table.Row{"#", "Content", "Scene", "Prompt"}, rows)
			})
		},
	}
}

func chapterScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes <chapter>",
		Short: "List the spans of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				scenes, err := c.Client.Chapters().SceneList(ctx, project, args[0])
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(scenes))
				for _, s := range scenes {
					rows = append(rows, table.Row{s.ID, clip(s.Content, 40), clip(s.BaseScene, 20), clip(s.Scene, 30), clip(s.Prompt, 40)})
				}
				return printTable(scenes, table.Row{"ID", "Content", "Base scene", "Scene", "Prompt"}, rows)
			})
		},
	}
}

func chapterEditSpanCmd() *cobra.Command {
	var content, baseScene, scene, prompt string
	cmd := &cobra.Command{
		Use:   "edit-span <chapter> <span-id>",
		Short: "Update fields of one span",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit := reelsdk.SceneEdit{ID: args[1]}
			flags := cmd.Flags()
			if flags.Changed("content") {
				edit.Span = &content
			}
			if flags.Changed("base-scene") {
				edit.BaseScene = &baseScene
			}
			if flags.Changed("scene") {
				edit.Scene = &scene
			}
			if flags.Changed("prompt") {
				edit.Prompt = &prompt
			}
			if edit.Span == nil && edit.BaseScene == nil && edit.Scene == nil && edit.Prompt == nil {
				return fmt.Errorf("nothing to update; pass --content, --base-scene, --scene or --prompt")
			}
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				return c.Client.Chapters().SaveScenes(ctx, project, args[0], []reelsdk.SceneEdit{edit})
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "span narration text")
	cmd.Flags().StringVar(&baseScene, "base-scene", "", "base scene name")
	cmd.Flags().StringVar(&scene, "scene", "", "scene description")
	cmd.Flags().StringVar(&prompt, "prompt", "", "image prompt")
	return cmd
}

func chapterExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <chapter>",
		Short: "Extract characters mentioned in a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				res, err := c.Client.Chapters().ExtractCharacters(ctx, project, args[0])
				if err != nil {
					return err
				}
				return printCharacters(res.Characters, nil, res)
			})
		},
	}
}

func chapterTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <prompt>...",
		Short: "Translate image prompts to English",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				out, err := c.Client.Chapters().TranslatePrompts(ctx, project, args)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(out))
				for i, t := range out {
					src := ""
					if i < len(args) {
						src = args[i]
					}
					rows = append(rows, table.Row{clip(src, 40), t})
				}
				return printTable(out, table.Row{"Prompt", "Translation"}, rows)
			})
		},
	}
}

func chapterImportCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a novel text file as chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				res, err := c.Client.Chapters().ImportNovel(ctx, reelsdk.ImportNovelRequest{
					ProjectName:    project,
					FileName:       filepath.Base(args[0]),
					File:           f,
					ChapterPattern: pattern,
				})
				if err != nil {
					return err
				}
				c.say("chapter.imported", map[string]any{"count": res.TotalChapters})
				rows := make([]table.Row, 0, len(res.Chapters))
				for _, name := range res.Chapters {
					rows = append(rows, table.Row{name})
				}
				return printTable(res, table.Row{"Chapter"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "chapter heading regexp")
	return cmd
}
