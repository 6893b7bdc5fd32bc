package cli

import (
	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command.  Without arguments it runs a
// full poll cycle over every tracked application.
func NewRefreshCmd(app appProvider, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [application-number]...",
		Short: "Fetch current USPTO data now instead of waiting for the next poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			summary, err := a.Poller.RunCycleNow(cmd.Context(), args...)
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return printJSON(cmd, summary)
			}

			printSuccess(cmd, "checked %d application(s): %d updated, %d new event(s)",
				summary.PatentsChecked, summary.PatentsUpdated, summary.NewEvents)
			for _, line := range summary.Errors {
				printWarn(cmd, "  %s", line)
			}
			if summary.Aborted {
				printWarn(cmd, "cycle aborted early; fix the API key and retry")
			}
			return nil
		},
	}
}
