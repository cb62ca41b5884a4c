// Package feed provides the sample sources the producer agents read from.
//
// Random stands in for a live timing feed and weather station. Real feeds
// plug in by implementing TelemetrySource or WeatherSource, or by wrapping a
// function with TelemetryFunc and WeatherFunc.
package feed
