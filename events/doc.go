// Package events defines what travels over the pit-wall bus: the event
// envelope, the topics agents publish to and the Hook subscribers implement.
//
// Design decisions:
//   - Type safety: Sample[T] carries a typed race payload, so a hook receives
//     a TelemetrySample or WeatherSample rather than a bag of fields
//   - Rich metadata: every event has an ID, its topic, the sender and a timestamp
//   - Efficient JSON: custom marshaling with pre-allocated type markers, the
//     wire form used by out-of-process transports
//   - Explicit handling: Hook has one method per event kind and no no-op base
//
// Event hierarchy:
//   - Event: Base interface for all bus events
//     ├── Sample[race.TelemetrySample]: published on TopicTelemetry
//     ├── Sample[race.WeatherSample]: published on TopicWeather
//     ├── Sample[race.StrategyInsight]: published on TopicInsight
//     └── Error: a producer failure surfaced to subscribers
//
// Example usage:
//
//	ev := events.NewSample(events.TopicTelemetry, "telemetry", sample)
//	data, err := events.ToJSON(ev)
//	if err != nil {
//	    return err
//	}
//	decoded, err := events.FromJSON(data)
//	if err != nil {
//	    return err
//	}
//	return events.Dispatch(ctx, hook, decoded)
package events
