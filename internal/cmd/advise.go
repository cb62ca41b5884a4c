package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/casualjim/pitwall/advisor"
	"github.com/charmbracelet/glamour"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

type askFunc func(ctx context.Context, a *advisor.Advisor, args []any) (string, error)

// adviceCommand builds a command that loads one JSON document per flag and
// hands them to ask in flag order.
func adviceCommand(use, short string, inputs []string, ask askFunc) *cobra.Command {
	var raw bool
	values := make([]string, len(inputs))

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := make([]any, len(inputs))
			for i, v := range values {
				doc, err := loadJSON(v, cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("--%s: %w", inputs[i], err)
				}
				args[i] = doc
			}

			adv, err := buildAdvisor(cmd.Context(), configFrom(cmd).LLM)
			if err != nil {
				return err
			}
			text, err := ask(cmd.Context(), adv, args)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), text, raw)
		},
	}

	for i, name := range inputs {
		cmd.Flags().StringVar(&values[i], name, "", fmt.Sprintf("%s as inline JSON, a file path, or - for stdin", name))
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer without markdown rendering")
	return cmd
}

func newAnalyzeCommand() *cobra.Command {
	return adviceCommand("analyze", "Ask the advisor to assess a tyre strategy", []string{"context", "plan"},
		func(ctx context.Context, a *advisor.Advisor, args []any) (string, error) {
			return a.AnalyzeTireStrategy(ctx, args[0], args[1])
		})
}

func newPredictCommand() *cobra.Command {
	return adviceCommand("predict", "Ask the advisor to predict the race outcome", []string{"context", "competitors"},
		func(ctx context.Context, a *advisor.Advisor, args []any) (string, error) {
			return a.PredictRaceOutcome(ctx, args[0], args[1])
		})
}

func newExplainCommand() *cobra.Command {
	return adviceCommand("explain", "Ask the advisor to explain a strategy decision", []string{"decision", "evidence"},
		func(ctx context.Context, a *advisor.Advisor, args []any) (string, error) {
			return a.ExplainStrategyDecision(ctx, args[0], args[1])
		})
}

// loadJSON resolves a document argument. Empty means no document, - reads
// stdin, valid JSON is taken literally and anything else is a file path.
// Plain words that are neither are passed through as a JSON string.
func loadJSON(arg string, stdin io.Reader) (any, error) {
	arg = strings.TrimSpace(arg)
	var data []byte
	switch {
	case arg == "":
		return nil, nil
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	case gjson.Valid(arg):
		return json.RawMessage(arg), nil
	default:
		b, err := os.ReadFile(arg)
		if errors.Is(err, os.ErrNotExist) {
			return arg, nil
		}
		if err != nil {
			return nil, err
		}
		data = b
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("not a valid JSON document")
	}
	return json.RawMessage(data), nil
}

func render(out io.Writer, text string, raw bool) error {
	if !raw {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return err
		}
		if rendered, err := r.Render(text); err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	return err
}
