package compose

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/promptkit/tokens"
)

// ToolOverheadTokens is added per tool descriptor for the framing a
// transport wraps around it.
const ToolOverheadTokens = 8

// ToolDescriptor describes a tool offered to the model. The schema is
// opaque; only its token cost matters here.
type ToolDescriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty" yaml:"-"`
}

// ToolFor derives a descriptor whose schema is reflected from the input
// type T.
func ToolFor[T any](name, description string) (ToolDescriptor, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	schema, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return ToolDescriptor{}, fmt.Errorf("%w: %s: %w", ErrToolSchema, name, err)
	}
	return ToolDescriptor{Name: name, Description: description, Schema: schema}, nil
}

// Text returns the text a descriptor is measured as.
func (d ToolDescriptor) Text() string {
	text := d.Name
	if d.Description != "" {
		text += ": " + d.Description
	}
	if len(d.Schema) > 0 {
		text += "\n" + string(d.Schema)
	}
	return text
}

// EstimateTools returns the token cost of sending tools alongside the
// messages.
func EstimateTools(est tokens.Estimator, tools []ToolDescriptor) (int, error) {
	texts := make([]string, len(tools))
	for i, t := range tools {
		texts[i] = t.Text()
	}
	n, err := tokens.EstimateMessages(est, ToolOverheadTokens, texts...)
	if err != nil {
		return 0, fmt.Errorf("estimate tools: %w", err)
	}
	return n, nil
}

func toolNames(tools []ToolDescriptor) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
