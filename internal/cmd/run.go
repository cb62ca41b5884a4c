package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casualjim/pitwall"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/internal/config"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/race"
	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand() *cobra.Command {
	var (
		duration time.Duration
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream strategy insights from the live feeds",
		Long: `Run starts the telemetry, weather and strategy agents and prints every
insight as a JSON line until interrupted or until --duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runStrategy(ctx, configFrom(cmd), cmd.OutOrStdout(), pretty)
		},
	}

	f := cmd.Flags()
	f.DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	f.BoolVar(&pretty, "pretty", false, "print insights for humans instead of JSON lines")
	f.String("car", "", "car to follow")
	f.Uint64("seed", 0, "seed for the simulated feeds (0 picks one at random)")
	f.String("bus", "", "event bus: local, buffered, nats")
	f.String("nats-url", "", "NATS server url when --bus=nats")
	f.Bool("explain", false, "ask the language model to explain every insight")
	return cmd
}

func runStrategy(ctx context.Context, cfg *config.Config, out io.Writer, pretty bool) error {
	log := slogx.Named("cmd.run")

	broker, release, err := buildBroker(cfg.Bus)
	if err != nil {
		return err
	}
	defer release()

	options := []pitwall.Option{
		pitwall.WithBroker(broker),
		pitwall.WithCarID(cfg.CarID),
		pitwall.WithSeed(cfg.Seed),
		pitwall.WithTelemetryInterval(cfg.Telemetry.Interval),
		pitwall.WithWeatherInterval(cfg.Weather.Interval),
		pitwall.WithStrategyInterval(cfg.Strategy.Interval),
		pitwall.WithQueueSize(cfg.Strategy.QueueSize),
		pitwall.WithExplainTimeout(cfg.Strategy.ExplainTimeout),
		pitwall.WithObserver(events.LoggingHook(slogx.Named("bus"))),
	}
	if cfg.Strategy.Explain {
		adv, err := buildAdvisor(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		options = append(options, pitwall.WithExplainer(adv))
	}

	o, err := pitwall.New(options...)
	if err != nil {
		return err
	}
	defer func() {
		if err := o.Close(); err != nil {
			log.Warn("failed to close orchestrator", slogx.Error(err))
		}
	}()

	if err := o.Start(ctx); err != nil {
		return err
	}
	log.Info("pit wall is live",
		slog.String("car_id", cfg.CarID),
		slog.String("bus", cfg.Bus.Kind),
		slog.Bool("explain", cfg.Strategy.Explain),
	)

	if pretty {
		for insight := range o.Insights(ctx) {
			printInsight(out, insight)
		}
	} else {
		for b, err := range o.InsightsJSON(ctx) {
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "%s\n", b); err != nil {
				return err
			}
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := o.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("pit wall stopped", slog.Uint64("dropped_insights", o.Strategy().Dropped()))
	return nil
}

func printInsight(out io.Writer, insight race.StrategyInsight) {
	call := color.GreenString(insight.Summary())
	if insight.PitCall() {
		call = color.YellowString(insight.Summary())
	}
	fmt.Fprintf(out, "%s: %s\n", color.CyanString("Strategy"), call)
	if insight.Explanation != "" {
		fmt.Fprintf(out, "%s: %s\n", color.MagentaString("Advisor"), insight.Explanation)
	}
	pp.Fprintln(out, insight)
}
