package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEstimatingCounterWithRatio(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{name: "custom ratio", ratio: 3.0, expected: 3.0},
		{name: "zero ratio uses default", ratio: 0, expected: DefaultCharsPerToken},
		{name: "negative ratio uses default", ratio: -1, expected: DefaultCharsPerToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEstimatingCounterWithRatio(tt.ratio)
			if c.CharsPerToken != tt.expected {
				t.Errorf("expected CharsPerToken %v, got %v", tt.expected, c.CharsPerToken)
			}
		})
	}
}

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "single character", text: "a", expected: 1},
		{name: "four characters", text: "test", expected: 1},
		{name: "five characters", text: "tests", expected: 2},
		{name: "hello world", text: "Hello World", expected: 3},
		{name: "multi-byte runes count once", text: "ééééééé€", expected: 2},
		{name: "forty characters", text: strings.Repeat("x", 40), expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestEstimatingCounter_Monotonic(t *testing.T) {
	c := NewEstimatingCounter()
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)

	prev := 0
	for i := range len(text) + 1 {
		n := c.Count(text[:i])
		require.GreaterOrEqual(t, n, prev, "prefix of length %d", i)
		prev = n
	}
}

func TestEstimatingCounter_PartsNeverUndercountWhole(t *testing.T) {
	c := NewEstimatingCounterWithRatio(3.5)
	parts := []string{"a", "bc", "def", "é", "ghij", " ", "klmnopq", "r"}

	sum := 0
	for _, p := range parts {
		sum += c.Count(p)
	}
	whole := c.Count(strings.Join(parts, ""))
	assert.GreaterOrEqual(t, sum, whole)

	d := NewEstimatingCounter()
	assert.Equal(t, 1, d.Count("a"))
	assert.Equal(t, 10, d.Count(strings.Repeat("a", 40)))
}

func TestEstimatingCounter_ZeroValueUsesDefault(t *testing.T) {
	var c EstimatingCounter
	assert.Equal(t, 1, c.Count("test"))
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	c := NewEstimatingCounter()

	assert.True(t, c.FitsInLimit("", 0))
	assert.True(t, c.FitsInLimit("test", 1))
	assert.False(t, c.FitsInLimit("test test test test test", 3))
}

func TestFromCounter(t *testing.T) {
	t.Run("estimating counter is used directly", func(t *testing.T) {
		c := NewEstimatingCounter()
		e := FromCounter(c)
		_, isSame := e.(*EstimatingCounter)
		assert.True(t, isSame)
	})

	t.Run("plain counter is adapted", func(t *testing.T) {
		e := FromCounter(wordCounter{})
		n, err := e.Estimate("one two three")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestEstimatorFunc(t *testing.T) {
	boom := errors.New("tokenizer offline")
	e := EstimatorFunc(func(string) (int, error) { return 0, boom })

	_, err := e.Estimate("text")
	assert.ErrorIs(t, err, boom)
}

func TestGetModelLimit(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{model: "claude-opus-4", expected: 200000},
		{model: "claude-sonnet-4-20250514", expected: 200000},
		{model: "gpt-4o-mini", expected: 128000},
		{model: "gpt-4.1", expected: 1047576},
		{model: "GPT-5-codex", expected: 400000},
		{model: "gemini-2.5-pro", expected: 1048576},
		{model: "llama3", expected: 100000},
		{model: "", expected: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetModelLimit(tt.model))
		})
	}
}

func TestModelLimits_AllPositive(t *testing.T) {
	for model, limit := range ModelLimits {
		if limit <= 0 {
			t.Errorf("ModelLimits[%q] = %d, should be positive", model, limit)
		}
	}
}

// wordCounter counts whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func (w wordCounter) FitsInLimit(text string, limit int) bool { return w.Count(text) <= limit }

func BenchmarkEstimatingCounter_Count(b *testing.B) {
	c := NewEstimatingCounter()
	text := strings.Repeat("Hello World ", 100)

	b.ResetTimer()
	for range b.N {
		c.Count(text)
	}
}

func TestEstimateMessages(t *testing.T) {
	est := NewEstimatingCounterWithRatio(1)

	n, err := EstimateMessages(est, 3, "abcd", "ef")
	require.NoError(t, err)
	assert.Equal(t, 4+3+2+3, n)

	n, err = EstimateMessages(est, 3)
	require.NoError(t, err)
	assert.Zero(t, n)

	boom := errors.New("boom")
	_, err = EstimateMessages(EstimatorFunc(func(string) (int, error) { return 0, boom }), 0, "x")
	assert.ErrorIs(t, err, boom)
}
