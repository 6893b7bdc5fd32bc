package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
)

// NewUpdatesCmd creates the updates command.
func NewUpdatesCmd(app appProvider, opts *RootOptions) *cobra.Command {
	var (
		days  int
		codes []string
	)

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Show recent USPTO activity across tracked applications",
		Long:  "Lists transaction-history events whose event date falls inside the window,\ngrouped per application.  The window is agency activity, not poll time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			groups, err := a.Events.RecentGrouped(cmd.Context(), days, codes)
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return printJSON(cmd, groups)
			}

			if len(groups) == 0 {
				cmd.Printf("no activity in the last %d day(s)\n", days)
				return nil
			}

			bold := color.New(color.Bold)
			for _, g := range groups {
				bold.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
					tracking.FormatApplicationNumber(g.ApplicationNumber), g.Title)
				for _, ev := range g.Events {
					marker := " "
					if ev.IsNew {
						marker = "*"
					}
					line := "  " + marker + " " + ev.EventDate + "  " + ev.EventCode + "  " + ev.EventDescription
					if tracking.IsSignificantEvent(ev.EventCode) {
						if label := tracking.SignificantEventLabel(ev.EventCode); label != "" {
							line += "  [" + label + "]"
						}
						successColor.Fprintln(cmd.OutOrStdout(), line)
						continue
					}
					cmd.Println(line)
				}
				cmd.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "look-back window in days")
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "restrict to these event codes (e.g. CTNF,NOA)")
	return cmd
}
