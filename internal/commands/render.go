package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	// ContentOnly skips the page template.
	ContentOnly bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(global *GlobalOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render one page to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.ContentOnly, "content-only", false, "Print the processed content without the page template")
	return cmd
}

func runRender(cmd *cobra.Command, global *GlobalOptions, opts *RenderOptions, path string) error {
	a, err := loadApp(cmd, global, true)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline := a.Pipeline()
	pg, err := pipeline.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	var out string
	if opts.ContentOnly {
		out, err = pipeline.Content(cmd.Context(), pg)
	} else {
		out, err = pipeline.Render(cmd.Context(), pg)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}
