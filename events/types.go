package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/casualjim/pitwall/race"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	TopicTelemetry = "telemetry.sample"
	TopicWeather   = "weather.sample"
	TopicInsight   = "strategy.insight"
)

const typeError = "error"

var errorJSON = []byte(`{"type":"error"}`)

// Event is implemented by everything that can be published on a topic.
type Event interface {
	raceEvent()
}

// NewID returns a time-ordered identifier for a new event.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Sample is a payload published by an agent on a topic.
type Sample[T race.Payload] struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

// NewSample stamps payload with a fresh ID and the current time.
func NewSample[T race.Payload](topic, sender string, payload T) Sample[T] {
	return Sample[T]{
		ID:        NewID(),
		Topic:     topic,
		Payload:   payload,
		Sender:    sender,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func (Sample[T]) raceEvent() {}

// MarshalJSON implements custom JSON marshaling for Sample[T]
func (s Sample[T]) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes([]byte(`{}`), "type", string(s.Payload.Kind()))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "id", s.ID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "topic", s.Topic)
	if err != nil {
		return nil, err
	}

	payloadBytes, err := json.Marshal(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "payload", payloadBytes)
	if err != nil {
		return nil, err
	}

	return setEnvelope(result, s.Sender, s.Timestamp, s.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Sample[T]
func (s *Sample[T]) UnmarshalJSON(data []byte) error {
	var zero T
	if err := checkType(data, string(zero.Kind())); err != nil {
		return err
	}

	if err := readHeader(data, &s.ID, &s.Topic); err != nil {
		return err
	}

	payload := gjson.GetBytes(data, "payload")
	if !payload.Exists() {
		return fmt.Errorf("missing required field 'payload'")
	}
	if err := json.Unmarshal([]byte(payload.Raw), &s.Payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return readEnvelope(data, &s.Sender, &s.Timestamp, &s.Meta)
}

// Error reports a failure from an agent to the subscribers of its topic.
type Error struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

// NewError wraps err in an event for topic.
func NewError(topic, sender string, err error) Error {
	return Error{
		ID:        NewID(),
		Topic:     topic,
		Err:       err,
		Sender:    sender,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func (Error) raceEvent() {}

func (e Error) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "id", e.ID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "topic", e.Topic)
	if err != nil {
		return nil, err
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	return setEnvelope(result, e.Sender, e.Timestamp, e.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if err := checkType(data, typeError); err != nil {
		return err
	}

	if err := readHeader(data, &e.ID, &e.Topic); err != nil {
		return err
	}

	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		e.Err = errors.New(msg.String())
	}

	return readEnvelope(data, &e.Sender, &e.Timestamp, &e.Meta)
}

// ToJSON encodes an event in its wire form.
func ToJSON(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event from its wire form, picking the concrete type
// from the "type" field.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch typ := gjson.GetBytes(data, "type").String(); typ {
	case string(race.KindTelemetry):
		return decode[Sample[race.TelemetrySample]](data)
	case string(race.KindWeather):
		return decode[Sample[race.WeatherSample]](data)
	case string(race.KindInsight):
		return decode[Sample[race.StrategyInsight]](data)
	case typeError:
		return decode[Error](data)
	case "":
		return nil, fmt.Errorf("missing required field 'type'")
	default:
		return nil, fmt.Errorf("unknown event type: %q", typ)
	}
}

func decode[E Event](data []byte) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

func checkType(data []byte, want string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != want {
		return fmt.Errorf("missing or invalid type, expected '%s'", want)
	}
	return nil
}

func readHeader(data []byte, id *uuid.UUID, topic *string) error {
	idField := gjson.GetBytes(data, "id")
	if !idField.Exists() {
		return fmt.Errorf("missing required field 'id'")
	}
	if err := id.UnmarshalText([]byte(idField.String())); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	topicField := gjson.GetBytes(data, "topic")
	if !topicField.Exists() {
		return fmt.Errorf("missing required field 'topic'")
	}
	*topic = topicField.String()
	return nil
}

func setEnvelope(result []byte, sender string, ts strfmt.DateTime, meta gjson.Result) ([]byte, error) {
	var err error
	if sender != "" {
		result, err = sjson.SetBytes(result, "sender", sender)
		if err != nil {
			return nil, err
		}
	}

	if !ts.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", ts.String())
		if err != nil {
			return nil, err
		}
	}

	if meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(meta.Raw))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func readEnvelope(data []byte, sender *string, ts *strfmt.DateTime, meta *gjson.Result) error {
	if s := gjson.GetBytes(data, "sender"); s.Exists() {
		*sender = s.String()
	}

	if t := gjson.GetBytes(data, "timestamp"); t.Exists() {
		if err := ts.UnmarshalText([]byte(t.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	if m := gjson.GetBytes(data, "meta"); m.Exists() {
		*meta = m
	}
	return nil
}
