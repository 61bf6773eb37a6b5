package prompt

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	produce := func(context.Context) (Node, error) { return Text("x"), nil }

	tests := []struct {
		name     string
		root     Node
		wantPath string
		wantErr  bool
	}{
		{
			name: "valid tree",
			root: Group(
				System(Required(Text("identity"))),
				Boundary(),
				User(
					Prioritized(5, Text("ctx")).Named("ctx").Capped(10),
					Atomic(Group(Text("a"), Text("b"))),
					Cite("file.go", nil, Text("body")),
					Defer("later", produce),
				),
			),
		},
		{
			name: "empty group is valid",
			root: Group(),
		},
		{
			name:     "text outside message",
			root:     Group(Text("stray")),
			wantPath: "root/0.text",
			wantErr:  true,
		},
		{
			name:     "nested role message",
			root:     User(Text("a"), Group(Assistant(Text("b")))),
			wantPath: "root/1.group/0.assistant",
			wantErr:  true,
		},
		{
			name:     "unknown role",
			root:     RoleMessage{Role: "tool", Children: []Node{Text("x")}},
			wantPath: "root",
			wantErr:  true,
		},
		{
			name:     "negative max tokens",
			root:     User(Weighted{Name: "bad", MaxTokens: -1, Child: Text("x")}),
			wantPath: "root/0.weighted:bad",
			wantErr:  true,
		},
		{
			name:    "negative flex",
			root:    User(Prioritized(1, Text("x")).Flex(-1)),
			wantErr: true,
		},
		{
			name:    "NaN flex",
			root:    User(Prioritized(1, Text("x")).Flex(math.NaN())),
			wantErr: true,
		},
		{
			name:     "capped weight inside atomic",
			root:     User(Atomic(Prioritized(1, Text("x")).Capped(3))),
			wantPath: "root/0.atomic/child",
			wantErr:  true,
		},
		{
			name: "uncapped weight inside atomic is valid",
			root: User(Atomic(Prioritized(1, Text("x")))),
		},
		{
			name:    "async without producer",
			root:    User(Async{Name: "x"}),
			wantErr: true,
		},
		{
			name:    "reference without id",
			root:    User(Reference{Child: Text("x")}),
			wantErr: true,
		},
		{
			name:    "nil child in literal container",
			root:    Container{Children: []Node{nil}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTree)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, ve.Path)
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	w := Prioritized(7, Text("x")).Named("hint").Capped(20).Flex(2)
	assert.Equal(t, "hint", w.Name)
	assert.Equal(t, 7, w.Priority)
	assert.Equal(t, 20, w.MaxTokens)
	assert.Equal(t, 2.0, w.FlexGrow)
	assert.False(t, w.Required())

	r := Required(Text("x"))
	assert.True(t, r.Required())
	assert.Zero(t, r.FlexGrow)

	g := Group(Text("a"), nil, Text("b"))
	assert.Len(t, g.Children, 2)

	assert.Equal(t, "a\nb\n", Lines("a", "b").Text)
	assert.Equal(t, "", Lines().Text)
}

func TestErrors(t *testing.T) {
	be := &BudgetExceededError{Required: 12000, Budget: 8000, Nodes: []string{"identity", "query"}}
	assert.ErrorIs(t, be, ErrBudgetExceeded)
	assert.Contains(t, be.Error(), "12,000")
	assert.Contains(t, be.Error(), "8,000")
	assert.Contains(t, be.Error(), "identity, query")

	cause := errors.New("tokenizer offline")
	ee := NewEstimatorError("a very long piece of text that keeps going well past the preview", cause)
	assert.ErrorIs(t, ee, ErrEstimator)
	assert.ErrorIs(t, ee, cause)
	assert.LessOrEqual(t, len([]rune(ee.Preview)), previewLen+3)

	err := Cancelled(context.Canceled)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ErrCancelled, Cancelled(nil))
}
