package commands

import (
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command. It blocks until SIGINT or SIGTERM.
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve pages over HTTP and run the scheduled cache jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, global, false)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
