package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/pipeline"
	"github.com/matzehuels/fabricpdf/pkg/scene"
)

// renderCommand creates the render command for local PDF output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "render <scene.json>",
		Short: "Render a Fabric.js scene to a local PDF",
		Long: `Render a Fabric.js scene to a local PDF file without uploading it.

The input may be a request body ({"fabricJSON": {...}}) or a bare canvas
export. Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.pdf)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")
	return cmd
}

// convertCommand creates the convert command, which renders and uploads.
func (c *CLI) convertCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "convert <scene.json>",
		Short: "Render a scene and upload it to the artifact store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")
	return cmd
}

// inspectCommand creates the inspect command, a dry run that lists the
// drawing commands a scene produces.
func (c *CLI) inspectCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "inspect <scene.json>",
		Short: "Show the drawing commands for a scene without writing a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, input, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc, err := readScene(input)
	if err != nil {
		return err
	}

	renderer, imgCache, err := c.newRenderer(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer imgCache.Close()

	if output == "" {
		output = defaultOutput(input)
	}

	prog := newProgress(c.Logger)
	runner := pipeline.NewRunner(renderer, nil, c.Logger)
	if err := runner.RenderFile(ctx, sc, output, c.pipelineOptions(cfg)); err != nil {
		return err
	}
	prog.done("rendered", "input", input, "output", output)

	printSuccess(w, "Rendered %s", input)
	printStats(w, len(sc.Objects), countSkipped(sc), fileSize(output))
	printFile(w, output)
	return nil
}

func (c *CLI) runConvert(ctx context.Context, w, status io.Writer, input string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc, err := readScene(input)
	if err != nil {
		return err
	}

	renderer, imgCache, err := c.newRenderer(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer imgCache.Close()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(renderer, st, c.Logger)
	defer runner.Close(context.WithoutCancel(ctx))

	spinner := newSpinner(ctx, status, fmt.Sprintf("Converting %s...", filepath.Base(input)))
	spinner.Start()
	result, err := runner.Convert(ctx, sc, c.pipelineOptions(cfg))
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	printSuccess(w, "Uploaded to %s", st.Name())
	printStats(w, result.Stats.ObjectCount, countSkipped(sc), result.Stats.Bytes)
	printLink(w, result.URL)
	return nil
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, input string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc, err := readScene(input)
	if err != nil {
		return err
	}

	renderer, imgCache, err := c.newRenderer(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer imgCache.Close()

	rec := document.NewRecorder()
	if err := renderer.Render(ctx, sc, rec); err != nil {
		return err
	}

	fmt.Fprintln(w, StyleTitle.Render(filepath.Base(input)))
	printKeyValue(w, "background", orNone(sc.Background))
	printKeyValue(w, "objects", fmt.Sprint(len(sc.Objects)))
	printKeyValue(w, "commands", fmt.Sprint(len(rec.Commands())))
	if skipped := countSkipped(sc); skipped > 0 {
		printWarning(w, "%d object(s) of unsupported type skipped", skipped)
		for _, obj := range sc.Objects {
			if u, ok := obj.(*scene.Unknown); ok {
				printDetail(w, "object %d: %q", u.Index, u.TypeName)
			}
		}
	}
	fmt.Fprintln(w, commandTable(rec.Commands()))
	return nil
}

// defaultOutput replaces the input's extension with .pdf.
func defaultOutput(input string) string {
	if input == "-" {
		return "scene.pdf"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
}

func countSkipped(sc *scene.Scene) int {
	n := 0
	for _, obj := range sc.Objects {
		if _, ok := obj.(*scene.Unknown); ok {
			n++
		}
	}
	return n
}

func fileSize(path string) int {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return int(info.Size())
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
