package cmd

import (
	"errors"
	"fmt"

	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errUnreachable = errors.New("language model provider is unreachable")

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured language model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			unreachable := func(cause error) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.LLM.Provider, color.RedString("unreachable"))
				if cause != nil {
					return fmt.Errorf("%w: %w", errUnreachable, cause)
				}
				return errUnreachable
			}

			// a provider that cannot even be opened, e.g. without an API key,
			// is reported like one that does not answer
			adv, err := buildAdvisor(cmd.Context(), cfg.LLM)
			if err != nil {
				slogx.Named("cmd.ping").Debug("failed to open provider", slogx.Error(err))
				return unreachable(err)
			}
			if !adv.TestConnection(cmd.Context()) {
				return unreachable(nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.LLM.Provider, color.GreenString("ok"))
			return nil
		},
	}
}
