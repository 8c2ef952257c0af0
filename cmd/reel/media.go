package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reelsdk "novelreel/sdk/go"
)

const pollInterval = 500 * time.Millisecond

func mediaCmd() *cobra.Command {
	m := &cobra.Command{Use: "media", Short: "Generate span images and narration"}
	m.AddCommand(mediaImagesCmd())
	m.AddCommand(mediaAudioCmd())
	m.AddCommand(mediaProgressCmd())
	m.AddCommand(mediaCancelCmd())
	m.AddCommand(mediaWorkflowsCmd())
	m.AddCommand(mediaWorkflowCmd())
	m.AddCommand(mediaURLCmd())
	m.AddCommand(mediaFetchCmd())
	return m
}

// spanPrompts builds per-span prompts from a chapter's scene list.
// text picks the prompt for each span; empty prompts and spans outside
// only are skipped.
func spanPrompts(scenes []reelsdk.ChapterScene, only []int, text func(reelsdk.ChapterScene) string) ([]reelsdk.SpanPrompt, error) {
	want := make(map[int]bool, len(only))
	for _, id := range only {
		want[id] = true
	}
	var out []reelsdk.SpanPrompt
	for _, s := range scenes {
		id, err := strconv.Atoi(s.ID)
		if err != nil {
			return nil, fmt.Errorf("span id %q: %w", s.ID, err)
		}
		if len(want) > 0 && !want[id] {
			continue
		}
		if p := text(s); p != "" {
			out = append(out, reelsdk.SpanPrompt{ID: id, Prompt: p})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no spans to generate; run 'reel chapter split' first")
	}
	return out, nil
}

func mediaImagesCmd() *cobra.Command {
	var width, height int
	var style, workflow string
	var spans []int
	var wait bool
	cmd := &cobra.Command{
		Use:   "images <chapter>",
		Short: "Generate span images from their prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				scenes, err := c.Client.Chapters().SceneList(ctx, project, args[0])
				if err != nil {
					return err
				}
				prompts, err := spanPrompts(scenes, spans, func(s reelsdk.ChapterScene) string { return s.Prompt })
				if err != nil {
					return err
				}
				task, err := c.Client.Media().GenerateImages(ctx, reelsdk.GenerateImagesRequest{
					ProjectName:   project,
					ChapterName:   args[0],
					ImageSettings: reelsdk.ImageSettings{Width: width, Height: height, Style: style},
					Prompts:       prompts,
					Workflow:      workflow,
				})
				if err != nil {
					return err
				}
				return submitted(ctx, c, task, wait)
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 1024, "image width")
	cmd.Flags().IntVar(&height, "height", 768, "image height")
	cmd.Flags().StringVar(&style, "style", "", "style hint")
	cmd.Flags().StringVar(&workflow, "workflow", "", "image workflow name")
	cmd.Flags().IntSliceVar(&spans, "span", nil, "only these span ids")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to finish")
	return cmd
}

func mediaAudioCmd() *cobra.Command {
	var voice, rate string
	var spans []int
	var wait bool
	cmd := &cobra.Command{
		Use:   "audio <chapter>",
		Short: "Generate span narration from their text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				scenes, err := c.Client.Chapters().SceneList(ctx, project, args[0])
				if err != nil {
					return err
				}
				prompts, err := spanPrompts(scenes, spans, func(s reelsdk.ChapterScene) string { return s.Content })
				if err != nil {
					return err
				}
				task, err := c.Client.Media().GenerateAudio(ctx, reelsdk.GenerateAudioRequest{
					ProjectName:   project,
					ChapterName:   args[0],
					AudioSettings: reelsdk.AudioSettings{Voice: voice, Rate: rate},
					Prompts:       prompts,
				})
				if err != nil {
					return err
				}
				return submitted(ctx, c, task, wait)
			})
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "zh-CN-XiaoxiaoNeural", "narration voice")
	cmd.Flags().StringVar(&rate, "rate", "+0%", "speech rate")
	cmd.Flags().IntSliceVar(&spans, "span", nil, "only these span ids")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to finish")
	return cmd
}

func submitted(ctx context.Context, c *cli, task reelsdk.GenerationTask, wait bool) error {
	c.say("media.submitted", nil)
	if !wait {
		return printValue(task)
	}
	progress, err := waitTask(ctx, c, task.TaskID)
	if err != nil {
		return err
	}
	return printProgress(progress)
}

// waitTask polls a media task until it reaches a terminal state.
func waitTask(ctx context.Context, c *cli, taskID string) (reelsdk.GenerationProgress, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	label := c.Notifier.Bundle.Lookup(c.Notifier.Lang, "media.progress")
	for {
		p, err := c.Client.Media().Progress(ctx, taskID)
		if err != nil {
			return p, err
		}
		if !viper.GetBool("json") {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d", label, p.Current, p.Total)
		}
		if p.Done() {
			if !viper.GetBool("json") {
				fmt.Fprintln(os.Stderr)
			}
			return p, nil
		}
		select {
		case <-ctx.Done():
			return p, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printProgress(p reelsdk.GenerationProgress) error {
	current := ""
	if p.CurrentPrompt != nil {
		current = clip(*p.CurrentPrompt, 40)
	}
	rows := []table.Row{{p.Status, fmt.Sprintf("%d/%d", p.Current, p.Total), current, len(p.Errors)}}
	if err := printTable(p, table.Row{"Status", "Progress", "Current", "Errors"}, rows); err != nil {
		return err
	}
	if !viper.GetBool("json") {
		for _, e := range p.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
	}
	return nil
}

func mediaProgressCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "progress <task-id>",
		Short: "Show media task progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				if wait {
					p, err := waitTask(ctx, c, args[0])
					if err != nil {
						return err
					}
					return printProgress(p)
				}
				p, err := c.Client.Media().Progress(ctx, args[0])
				if err != nil {
					return err
				}
				return printProgress(p)
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the task finishes")
	return cmd
}

func mediaCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a media task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				if err := c.Client.Media().Cancel(ctx, args[0]); err != nil {
					return err
				}
				c.say("media.cancelled", nil)
				return nil
			})
		},
	}
}

func mediaWorkflowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List image workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				items, err := c.Client.Media().Workflows(ctx)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, w := range items {
					rows = append(rows, table.Row{w["name"], w["description"]})
				}
				return printTable(items, table.Row{"Name", "Description"}, rows)
			})
		},
	}
}

func mediaWorkflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflow <name>",
		Short: "Show one image workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				w, err := c.Client.Media().Workflow(ctx, args[0])
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(w))
				for k := range w {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([]table.Row, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, table.Row{k, w[k]})
				}
				return printTable(w, table.Row{"Key", "Value"}, rows)
			})
		},
	}
}

func resourceRef(project, chapter, span, kind string) (reelsdk.ResourceRef, error) {
	ref := reelsdk.ResourceRef{Project: project, Chapter: chapter, SpanID: span, Kind: reelsdk.ResourceKind(kind)}
	switch ref.Kind {
	case reelsdk.ResourceImage, reelsdk.ResourceAudio, reelsdk.ResourceVideo:
		return ref, nil
	}
	return ref, fmt.Errorf("unknown kind %q, want image, audio or video", kind)
}

func mediaURLCmd() *cobra.Command {
	var span, kind string
	cmd := &cobra.Command{
		Use:   "url <chapter>",
		Short: "Print the cache-busted URL of a generated asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				ref, err := resourceRef(project, args[0], span, kind)
				if err != nil {
					return err
				}
				u, err := c.Client.ResourceURL(ref)
				if err != nil {
					return err
				}
				return printValue(u)
			})
		},
	}
	cmd.Flags().StringVar(&span, "span", "", "span id")
	cmd.Flags().StringVar(&kind, "kind", "image", "image, audio or video")
	return cmd
}

func mediaFetchCmd() *cobra.Command {
	var span, kind, output string
	cmd := &cobra.Command{
		Use:   "fetch <chapter>",
		Short: "Download a generated asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				ref, err := resourceRef(project, args[0], span, kind)
				if err != nil {
					return err
				}
				return download(ctx, c, ref, output)
			})
		},
	}
	cmd.Flags().StringVar(&span, "span", "", "span id")
	cmd.Flags().StringVar(&kind, "kind", "image", "image, audio or video")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// download writes the asset at ref to output, or stdout when output is empty.
func download(ctx context.Context, c *cli, ref reelsdk.ResourceRef, output string) error {
	u, err := c.Client.ResourceURL(ref)
	if err != nil {
		return err
	}
	res, err := c.Client.Fetch(ctx, u)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n, err := io.Copy(w, res.Body)
	if err != nil {
		return err
	}
	if output != "" {
		c.Logger.Info("asset saved", "path", output, "bytes", n, "content_type", res.ContentType)
	}
	return nil
}
