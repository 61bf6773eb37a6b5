package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/promptkit/tokens"
)

// ToolInvocation is one tool call made during a turn.
type ToolInvocation struct {
	ToolName string          `json:"tool_name" yaml:"tool_name"`
	Input    json.RawMessage `json:"input,omitempty" yaml:"input,omitempty"`
	Result   string          `json:"result,omitempty" yaml:"result,omitempty"`
	// Error holds the failure text when the call failed; Result is then
	// ignored.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// TruncatedAt is the length the producer already cut Result to, if any.
	TruncatedAt int `json:"truncated_at,omitempty" yaml:"truncated_at,omitempty"`
}

// Failed reports whether the call failed.
func (inv ToolInvocation) Failed() bool {
	return inv.Error != ""
}

// Output returns the result text, or the error text for failed calls.
func (inv ToolInvocation) Output() string {
	if inv.Failed() {
		return "error: " + inv.Error
	}
	return inv.Result
}

// Call renders the invocation as name(compact-json-input). Input that is
// not valid JSON is quoted as a string.
func (inv ToolInvocation) Call() string {
	return inv.ToolName + "(" + CompactInput(inv.Input) + ")"
}

// CompactInput returns input as single-line JSON.
func CompactInput(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	if !gjson.ValidBytes(input) {
		b, _ := json.Marshal(string(input))
		return string(b)
	}
	return gjson.GetBytes(input, "@ugly").Raw
}

// InputPaths returns the file paths or URIs named by common input fields.
func InputPaths(input json.RawMessage) []string {
	if len(input) == 0 || !gjson.ValidBytes(input) {
		return nil
	}
	var out []string
	for _, r := range gjson.GetManyBytes(input, "path", "file_path", "uri", "paths") {
		switch {
		case r.IsArray():
			for _, p := range r.Array() {
				if p.Type == gjson.String && p.Str != "" {
					out = append(out, p.Str)
				}
			}
		case r.Type == gjson.String && r.Str != "":
			out = append(out, r.Str)
		}
	}
	return out
}

// Turn is one exchange of a conversation. Synthetic turns stand in for a
// summarized range of earlier turns.
type Turn struct {
	ID              string           `json:"id" yaml:"id"`
	UserText        string           `json:"user_text,omitempty" yaml:"user_text,omitempty"`
	AssistantText   string           `json:"assistant_text,omitempty" yaml:"assistant_text,omitempty"`
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty" yaml:"tool_invocations,omitempty"`

	Synthetic bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
	// Covers lists the IDs of the turns a synthetic turn replaced.
	Covers []string `json:"covers,omitempty" yaml:"covers,omitempty"`
}

// Parts returns the texts a turn renders as, in order.
func (t Turn) Parts() []string {
	if t.Synthetic {
		return []string{SummaryText(t.Summary)}
	}
	parts := make([]string, 0, 2+2*len(t.ToolInvocations))
	if t.UserText != "" {
		parts = append(parts, t.UserText)
	}
	for _, inv := range t.ToolInvocations {
		parts = append(parts, inv.Call(), inv.Output())
	}
	if t.AssistantText != "" {
		parts = append(parts, t.AssistantText)
	}
	return parts
}

// SummaryText is the text a synthetic turn renders.
func SummaryText(summary string) string {
	return "Summary of the earlier conversation:\n" + strings.TrimSpace(summary) + "\n"
}

// EstimateTurn returns the token estimate of a turn's rendered parts.
func EstimateTurn(est tokens.Estimator, t Turn) (int, error) {
	total := 0
	for _, p := range t.Parts() {
		n, err := est.Estimate(p)
		if err != nil {
			return 0, fmt.Errorf("estimate turn %s: %w", t.ID, err)
		}
		total += n
	}
	return total, nil
}
