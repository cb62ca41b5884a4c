package cmd

import (
	"fmt"

	"github.com/casualjim/pitwall/race"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "schema {telemetry|weather|insight}",
		Short:     "Print the JSON schema of a bus payload",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(race.KindTelemetry), string(race.KindWeather), string(race.KindInsight)},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := race.Schema(race.Kind(args[0]))
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
			return err
		},
	}
}
