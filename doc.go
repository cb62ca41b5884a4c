/*
Package pitwall is a race-strategy assistant for the pit wall.

Three agents share a topic-keyed event bus:

  - the telemetry agent publishes one car's state every second on "telemetry.sample"
  - the weather agent publishes track conditions every five seconds on "weather.sample"
  - the strategy agent keeps the newest sample of each and every two seconds
    fuses them into a race.StrategyInsight published on "strategy.insight"

The Orchestrator builds the bus and the agents, starts and stops them together
and exposes the stream of insights:

	o, err := pitwall.New(
		pitwall.WithCarID("44"),
		pitwall.WithSeed(7),
	)
	if err != nil {
		return err
	}
	defer o.Close()

	if err := o.Start(ctx); err != nil {
		return err
	}
	for insight := range o.Insights(ctx) {
		fmt.Println(insight.Summary())
	}

The bus defaults to the synchronous in-process pubsub.Local broker. Passing
pubsub.Buffered or pubsub.NATS with WithBroker moves delivery onto subscriber
goroutines or across processes without changing the agents.

An optional agent.Explainer, such as the advisor package backed by an LLM
provider, attaches a narrative to every insight.
*/
package pitwall
