package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uspto-tools/pairwatch/internal/infrastructure/secrets"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// NewAPIKeyCmd creates the apikey command tree.
func NewAPIKeyCmd(app appProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the stored USPTO Open Data Portal API key",
	}

	setCmd := &cobra.Command{
		Use:   "set [key]",
		Short: "Validate and store an API key",
		Long:  "Validates the key against the live USPTO API before storing it.\nWhen no argument is given the key is read from standard input, which\nkeeps it out of the shell history.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "API key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return appErrors.InvalidParam("API key must not be empty")
			}

			ok, err := a.Client.ValidateAPIKey(cmd.Context(), key)
			if err != nil {
				return appErrors.Wrap(err, appErrors.GetCode(err),
					"could not reach the USPTO API to validate the key; nothing was stored")
			}
			if !ok {
				return appErrors.InvalidParam("the USPTO API rejected this key; nothing was stored")
			}

			if err := a.Secrets.Set(secrets.APIKeyName, key); err != nil {
				return err
			}
			printSuccess(cmd, "API key validated and stored")
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the stored API key against the live API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			key, err := a.Secrets.Get(secrets.APIKeyName)
			if err != nil {
				return err
			}
			if key == "" {
				printWarn(cmd, "no API key configured; run \"pairwatch apikey set\"")
				return nil
			}

			ok, err := a.Client.ValidateAPIKey(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !ok {
				printWarn(cmd, "the stored API key was rejected by the USPTO API")
				return nil
			}
			printSuccess(cmd, "the stored API key is valid")
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Secrets.Delete(secrets.APIKeyName); err != nil {
				return err
			}
			printSuccess(cmd, "API key removed")
			return nil
		},
	}

	cmd.AddCommand(setCmd, checkCmd, deleteCmd)
	return cmd
}
