package cli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
)

// NewAddCmd creates the add command.
func NewAddCmd(app appProvider, opts *RootOptions) *cobra.Command {
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "add <application-number>...",
		Short: "Start tracking one or more patent applications",
		Long:  "Registers applications for tracking and, unless --no-fetch is given,\nimmediately pulls their current data from the USPTO.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			for _, number := range args {
				p, err := a.Patents.Add(ctx, number)
				if err != nil {
					return err
				}
				printSuccess(cmd, "now tracking %s", tracking.FormatApplicationNumber(p.ApplicationNumber))

				if noFetch {
					continue
				}
				result, err := a.Orchestrator.RefreshPatent(ctx, p.ApplicationNumber)
				if err != nil {
					printWarn(cmd, "  initial fetch failed: %v (will retry on the next poll cycle)", err)
					continue
				}
				printSuccess(cmd, "  fetched %d transaction-history events", result.NewEventCount)
				for _, f := range result.FailedStages {
					printWarn(cmd, "  %s data unavailable: %v", f.Stage, f.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "register only, skip the initial data fetch")
	return cmd
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <application-number>...",
		Short: "Stop tracking applications and delete their stored data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			for _, number := range args {
				removed, err := a.Patents.Remove(cmd.Context(), number)
				if err != nil {
					return err
				}
				if !removed {
					printWarn(cmd, "%s was not tracked", tracking.FormatApplicationNumber(number))
					continue
				}
				printSuccess(cmd, "removed %s", tracking.FormatApplicationNumber(number))
			}
			return nil
		},
	}
}

// NewListCmd creates the list command.
func NewListCmd(app appProvider, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			patents, err := a.Patents.List(cmd.Context())
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return printJSON(cmd, patents)
			}

			if len(patents) == 0 {
				cmd.Println("no applications tracked; use \"pairwatch add\" to start")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Application", "Title", "Status", "Filed", "Expires", "Checked"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			for _, p := range patents {
				checked := "never"
				if p.LastChecked != nil {
					checked = p.LastChecked.Format("2006-01-02 15:04")
				}
				table.Append([]string{
					tracking.FormatApplicationNumber(p.ApplicationNumber),
					truncate(p.Title, 48),
					p.CurrentStatus,
					p.FilingDate,
					p.ExpirationDate,
					checked,
				})
			}
			table.Render()

			a.Logger.Debug("listed tracked applications", logging.Int("count", len(patents)))
			return nil
		},
	}
}

// truncate shortens s to at most max runes.  Indexing by rune keeps a
// multibyte title from being cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
