package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/livefir/databind"
)

func newCheckCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check TEMPLATE...",
		Short: "Lint templates without binding them",
		Long: `check reports malformed data-if expressions, unknown data-format and
data-class names, and data-list/data-map nodes without an item template.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := opts.binder(cmd)
			if err != nil {
				return err
			}

			total := 0
			for _, path := range args {
				n, err := checkFile(cmd, b, path)
				if err != nil {
					return err
				}
				total += n
			}

			if total > 0 {
				return fmt.Errorf("%d problem(s) found", total)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d template(s) OK\n", len(args))
			return nil
		},
	}
	return cmd
}

func checkFile(cmd *cobra.Command, b *databind.Binder, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	doc, err := databind.Parse(f)
	if err != nil {
		return 0, err
	}

	problems := b.Check(doc)
	for _, p := range problems {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, p)
	}
	return len(problems), nil
}
