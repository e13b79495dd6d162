package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/livefir/databind"
	"github.com/livefir/databind/internal/page"
)

func newRenderCommand(opts *Options) *cobra.Command {
	var (
		p        page.Page
		output   string
		minify   bool
		noMinify bool
		stats    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Bind a data file into a template and print the result",
		Example: `  databind render -t page.html -d data.yaml
  databind render -t card.html -d card.json --fragment -o card.out.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, err := opts.binder(cmd)
			if err != nil {
				return err
			}

			p.Minify = cfg.Minify
			if cmd.Flags().Changed("minify") {
				p.Minify = minify
			}
			if noMinify {
				p.Minify = false
			}

			result, err := p.Render(b)
			if stats {
				printStats(cmd.ErrOrStderr(), b)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(result.HTML)
				return err
			}
			if err := os.WriteFile(output, result.HTML, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&p.TemplatePath, "template", "t", "", "HTML template file")
	cmd.Flags().StringVarP(&p.DataPath, "data", "d", "", "YAML or JSON data file")
	cmd.Flags().BoolVar(&p.Fragment, "fragment", false, "treat the template as a fragment, not a full document")
	cmd.Flags().BoolVar(&minify, "minify", false, "minify the output")
	cmd.Flags().BoolVar(&noMinify, "no-minify", false, "never minify, even if the config asks for it")
	cmd.Flags().BoolVar(&stats, "stats", false, "print binding statistics to stderr")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func printStats(w io.Writer, b *databind.Binder) {
	m := b.Metrics()
	fmt.Fprintf(w, "nodes visited:   %d\n", m.NodesVisited)
	fmt.Fprintf(w, "clones created:  %d\n", m.ClonesCreated)
	fmt.Fprintf(w, "hidden nodes:    %d\n", m.HiddenNodes)
	fmt.Fprintf(w, "max stack depth: %d\n", m.MaxStackDepth)
	fmt.Fprintf(w, "expressions:     %d (%.1f%% malformed)\n", m.ExpressionsEvaluated, b.WarningRate())
	for _, c := range b.Counters() {
		fmt.Fprintf(w, "%-16s %d\n", c.Name+":", c.Count)
	}
	fmt.Fprintf(w, "elapsed:         %s\n", m.Uptime)
}
