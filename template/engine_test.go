package template

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Render(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		tmpl     string
		vars     map[string]any
		expected string
	}{
		{
			name:     "simple variable",
			tmpl:     "Hello {{name}}",
			vars:     map[string]any{"name": "World"},
			expected: "Hello World",
		},
		{
			name:     "go syntax passes through",
			tmpl:     "Hello {{.name}}",
			vars:     map[string]any{"name": "World"},
			expected: "Hello World",
		},
		{
			name:     "if block true",
			tmpl:     "{{#if urgent}}URGENT: {{/if}}fix it",
			vars:     map[string]any{"urgent": true},
			expected: "URGENT: fix it",
		},
		{
			name:     "if block false",
			tmpl:     "{{#if urgent}}URGENT: {{/if}}fix it",
			vars:     map[string]any{"urgent": false},
			expected: "fix it",
		},
		{
			name:     "each block",
			tmpl:     "{{#each items}}[{{.}}]{{/each}}",
			vars:     map[string]any{"items": []string{"a", "b"}},
			expected: "[a][b]",
		},
		{
			name:     "bullets helper",
			tmpl:     "{{bullets tools}}",
			vars:     map[string]any{"tools": []string{"grep", "edit"}},
			expected: "- grep\n- edit",
		},
		{
			name:     "join helper with quoted separator",
			tmpl:     `{{join tools ", "}}`,
			vars:     map[string]any{"tools": []any{"grep", "edit"}},
			expected: "grep, edit",
		},
		{
			name:     "default helper",
			tmpl:     `{{default name "anonymous"}}`,
			vars:     map[string]any{"name": ""},
			expected: "anonymous",
		},
		{
			name:     "upper helper",
			tmpl:     "{{upper family}}",
			vars:     map[string]any{"family": "gpt"},
			expected: "GPT",
		},
		{
			name:     "indent helper",
			tmpl:     "{{indent body 2}}",
			vars:     map[string]any{"body": "a\nb"},
			expected: "  a\n  b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.tmpl, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEngine_RenderErrors(t *testing.T) {
	e := NewEngine()

	_, err := e.Render("", nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = e.Render("{{#if x}}unterminated", nil)
	assert.ErrorIs(t, err, ErrParse)

	_, err = e.Render("{{indent body 2}}", map[string]any{"body": 42})
	assert.ErrorIs(t, err, ErrExecute)
}

func TestEngine_Parse(t *testing.T) {
	vars, err := NewEngine().Parse("{{name}} {{#if tools}}{{bullets tools}}{{/if}} {{upper family}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "tools", "family"}, vars)
}

func TestEngine_AddFunc(t *testing.T) {
	e := NewEngine()
	_, err := e.Render("{{name}}", map[string]any{"name": "x"})
	require.NoError(t, err)

	e.AddFunc("shout", func(s string) string { return s + "!" })
	got, err := e.Render(`{{shout "hi"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)
}

func TestEngine_ConcurrentRender(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Render("model {{family}}", map[string]any{"family": "claude"})
			if err == nil && got != "model claude" {
				err = errors.New("unexpected output " + got)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestValidateVariables(t *testing.T) {
	assert.NoError(t, ValidateVariables([]string{"a"}, map[string]any{"a": 1}))
	assert.ErrorIs(t, ValidateVariables([]string{"a", "b"}, map[string]any{"a": 1}), ErrVariable)
}
