// Package pubsub is the message bus the pit-wall agents talk over. It
// provides a small topic-based interface with three implementations.
//
// Design decisions:
//   - Context-first: all operations accept context.Context; a subscription
//     lives as long as the context it was created with
//   - Topic-based: producers and consumers only share a topic name
//   - Hook integration: subscribers implement events.Hook
//   - Subscription management: explicit lifecycle with unique IDs
//   - Thread safety: safe for concurrent publishing and subscribing
//
// Implementations:
//   - Local: synchronous dispatch on the publisher's goroutine, subscribers
//     called in registration order, no queuing and no retries
//   - Buffered: one buffered channel per subscriber, slow subscribers are dropped
//   - NATS: one NATS subject per topic, events travel in their JSON wire form
//
// Example usage:
//
//	broker := pubsub.Local()
//	topic := broker.Topic(ctx, events.TopicTelemetry)
//
//	sub, err := topic.Subscribe(ctx, hook)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	if err := topic.Publish(ctx, events.NewSample(events.TopicTelemetry, "telemetry", sample)); err != nil {
//	    return err
//	}
package pubsub
