package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	reelsdk "novelreel/sdk/go"
)

func videoCmd() *cobra.Command {
	v := &cobra.Command{Use: "video", Short: "Render chapter videos"}
	v.AddCommand(videoGenerateCmd())
	v.AddCommand(videoProgressCmd())
	v.AddCommand(videoCancelCmd())
	v.AddCommand(videoDownloadCmd())
	return v
}

// parseResolution accepts WIDTHxHEIGHT.
func parseResolution(s string) ([2]int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return [2]int{}, fmt.Errorf("invalid resolution %q, want WIDTHxHEIGHT", s)
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(w))
	height, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return [2]int{}, fmt.Errorf("invalid resolution %q, want WIDTHxHEIGHT", s)
	}
	return [2]int{width, height}, nil
}

func videoGenerateCmd() *cobra.Command {
	var (
		fps, fontSize, panIntensity int
		fade, zoom                  float64
		usePan                      bool
		panRange                    []float64
		fontName, resolution        string
	)
	cmd := &cobra.Command{
		Use:   "generate <chapter>",
		Short: "Render a chapter video from span images and narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			settings := reelsdk.VideoSettings{ChapterName: args[0]}
			if flags.Changed("fps") {
				settings.FPS = &fps
			}
			if flags.Changed("fade") {
				settings.FadeDuration = &fade
			}
			if flags.Changed("pan") {
				settings.UsePan = &usePan
			}
			if flags.Changed("pan-range") {
				if len(panRange) != 2 {
					return fmt.Errorf("--pan-range takes two values")
				}
				settings.PanRange = &[2]float64{panRange[0], panRange[1]}
			}
			if flags.Changed("zoom") {
				settings.ZoomFactor = &zoom
			}
			if flags.Changed("pan-intensity") {
				settings.PanIntensity = &panIntensity
			}
			if flags.Changed("font") {
				settings.FontName = &fontName
			}
			if flags.Changed("font-size") {
				settings.FontSize = &fontSize
			}
			if flags.Changed("resolution") {
				res, err := parseResolution(resolution)
				if err != nil {
					return err
				}
				settings.Resolution = &res
			}
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				settings.ProjectName = project
				res, err := c.Client.Video().Generate(ctx, settings)
				if err != nil {
					return err
				}
				c.say("video.generated", nil)
				return printValue(res.VideoPath)
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&fps, "fps", 24, "frames per second")
	flags.Float64Var(&fade, "fade", 0.5, "fade duration in seconds")
	flags.BoolVar(&usePan, "pan", false, "pan across images")
	flags.Float64SliceVar(&panRange, "pan-range", nil, "pan range as two fractions, e.g. 0.1,0.8")
	flags.Float64Var(&zoom, "zoom", 1.2, "zoom factor")
	flags.IntVar(&panIntensity, "pan-intensity", 1, "pan intensity")
	flags.StringVar(&fontName, "font", "", "subtitle font")
	flags.IntVar(&fontSize, "font-size", 32, "subtitle font size")
	flags.StringVar(&resolution, "resolution", "", "output size as WIDTHxHEIGHT")
	return cmd
}

func videoProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show video rendering progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				p, err := c.Client.Video().Progress(ctx)
				if err != nil {
					return err
				}
				current := ""
				if p.CurrentTask != nil {
					current = *p.CurrentTask
				}
				rows := []table.Row{{fmt.Sprintf("%d/%d", p.Progress, p.Total), fmt.Sprintf("%d%%", p.Percentage), current}}
				return printTable(p, table.Row{"Progress", "Percent", "Current"}, rows)
			})
		},
	}
}

func videoCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel video rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *cli) error {
				if err := c.Client.Video().Cancel(ctx); err != nil {
					return err
				}
				c.say("media.cancelled", nil)
				return nil
			})
		},
	}
}

func videoDownloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <chapter>",
		Short: "Download a rendered chapter video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0] + ".mp4"
			}
			return withProject(cmd.Context(), func(ctx context.Context, c *cli, project string) error {
				return download(ctx, c, reelsdk.ResourceRef{Project: project, Chapter: args[0], Kind: reelsdk.ResourceVideo}, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <chapter>.mp4)")
	return cmd
}
