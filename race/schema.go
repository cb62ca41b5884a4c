package race

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

var schemaReflector = jsonschema.Reflector{
	DoNotReference: true,
}

// Schema returns the JSON schema for the payload of the given kind.
func Schema(kind Kind) (*jsonschema.Schema, error) {
	var v any
	switch kind {
	case KindTelemetry:
		v = &TelemetrySample{}
	case KindWeather:
		v = &WeatherSample{}
	case KindInsight:
		v = &StrategyInsight{}
	default:
		return nil, fmt.Errorf("no schema for payload kind %q", kind)
	}
	s := schemaReflector.Reflect(v)
	s.Title = string(kind)
	return s, nil
}
