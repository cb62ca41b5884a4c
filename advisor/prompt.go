package advisor

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	defaultRequirement = "Be concise and actionable."
	closingLine        = "Return clear, structured text with bullet points where appropriate."
)

// Fields is a JSON object that keeps its keys in insertion order.
type Fields = orderedmap.OrderedMap[string, any]

// NewFields builds Fields from alternating keys and values.
func NewFields(kv ...any) *Fields {
	f := orderedmap.New[string, any](len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return f
}

// BuildPrompt renders the single-turn prompt sent to the model.
func BuildPrompt(task, system string, raceContext, input any, requirements []string) string {
	if len(requirements) == 0 {
		requirements = []string{defaultRequirement}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task)
	fmt.Fprintf(&b, "System: %s\n\n", system)
	fmt.Fprintf(&b, "Context:\n%s\n\n", indentJSON(raceContext))
	fmt.Fprintf(&b, "Input:\n%s\n\n", indentJSON(input))
	b.WriteString("Requirements:\n")
	for _, r := range requirements {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\n")
	b.WriteString(closingLine)
	return b.String()
}

// indentJSON encodes v with two-space indentation, falling back to its Go
// formatting when v cannot be encoded.
func indentJSON(v any) string {
	raw, err := json.MarshalNoEscape(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
