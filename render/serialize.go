package render

import "github.com/randalmurphal/promptkit/prompt"

// PieceKind classifies a rendered piece.
type PieceKind int

// Piece kinds.
const (
	PieceText PieceKind = iota
	PieceBoundary
	PieceReference
)

// Piece is one unit of rendered output, in document order.
type Piece struct {
	Kind     PieceKind
	Role     prompt.Role
	Text     string
	Tokens   int
	RefID    string
	RefValue any
}

// Message is a role-tagged message of the final prompt.
type Message struct {
	Role    prompt.Role `json:"role" yaml:"role"`
	Content string      `json:"content" yaml:"content"`
	Tokens  int         `json:"tokens" yaml:"tokens"`
}

// Reference is an attachment or citation whose content was rendered.
type Reference struct {
	ID    string `json:"id" yaml:"id"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Result is the outcome of a render.
type Result struct {
	Messages []Message `json:"messages" yaml:"messages"`
	// CacheBoundaries holds, for each boundary, the number of messages that
	// precede it.
	CacheBoundaries []int       `json:"cache_boundaries" yaml:"cache_boundaries"`
	TotalTokens     int         `json:"total_tokens" yaml:"total_tokens"`
	References      []Reference `json:"references" yaml:"references"`
}

// Serialize flattens rendered pieces into messages. Adjacent text of the
// same role with no boundary between them joins one message. Boundaries
// before the first message, or at the same index as the previous boundary,
// are dropped. References are de-duplicated by ID in order of first
// occurrence.
func Serialize(pieces []Piece) *Result {
	res := &Result{
		Messages:        []Message{},
		CacheBoundaries: []int{},
		References:      []Reference{},
	}
	seen := make(map[string]bool)
	split := false

	for _, p := range pieces {
		switch p.Kind {
		case PieceText:
			if p.Text == "" {
				continue
			}
			res.TotalTokens += p.Tokens
			last := len(res.Messages) - 1
			if last >= 0 && !split && res.Messages[last].Role == p.Role {
				res.Messages[last].Content += p.Text
				res.Messages[last].Tokens += p.Tokens
				continue
			}
			res.Messages = append(res.Messages, Message{Role: p.Role, Content: p.Text, Tokens: p.Tokens})
			split = false

		case PieceBoundary:
			idx := len(res.Messages)
			if idx == 0 {
				continue
			}
			if n := len(res.CacheBoundaries); n > 0 && res.CacheBoundaries[n-1] == idx {
				continue
			}
			res.CacheBoundaries = append(res.CacheBoundaries, idx)
			split = true

		case PieceReference:
			if seen[p.RefID] {
				continue
			}
			seen[p.RefID] = true
			res.References = append(res.References, Reference{ID: p.RefID, Value: p.RefValue})
		}
	}
	return res
}

// Contents returns the message contents in order.
func (r *Result) Contents() []string {
	out := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Content
	}
	return out
}
