// Package race holds the data model shared by every agent on the pit wall:
// car telemetry samples, weather samples and the strategy insight derived
// from them.
//
// The types are plain values that travel over the event bus. Each of them
// implements Payload so the events package can tag them on the wire.
//
// ComputeInsight is the fusion function the strategy agent runs on every
// cycle. It is a pure function of the latest telemetry and weather sample:
//
//	insight := race.ComputeInsight(tel, wx)
//	if insight.PitCall() {
//	    fmt.Println(insight.Summary())
//	}
package race
