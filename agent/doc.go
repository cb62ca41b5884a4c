// Package agent holds the long-running participants of the race bus.
//
// The Telemetry and Weather agents are producers: each polls its feed on a
// fixed interval and publishes the sample to its topic. The Strategy agent
// subscribes to both producer topics, keeps only the newest sample of each,
// and on its own interval fuses them into a race.StrategyInsight that is both
// queued for local consumers and published on events.TopicInsight.
//
// Every agent publishes once immediately on Start and then once per tick.
// Start and Stop are idempotent and an agent can be started again after it
// was stopped or its start context was cancelled.
package agent
