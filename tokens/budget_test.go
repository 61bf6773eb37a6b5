package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBudget(t *testing.T) {
	b := NewBudget(100000)

	assert.Equal(t, 100000, b.ContextWindow)
	assert.Equal(t, 90000, b.Prompt)
	assert.Equal(t, 10000, b.Reserved)
}

func TestNewBudgetWithReserve(t *testing.T) {
	tests := []struct {
		name           string
		window         int
		reserve        int
		expectedPrompt int
	}{
		{name: "no reserve", window: 1000, reserve: 0, expectedPrompt: 1000},
		{name: "quarter reserve", window: 1000, reserve: 25, expectedPrompt: 750},
		{name: "negative reserve clamps to zero", window: 1000, reserve: -5, expectedPrompt: 1000},
		{name: "reserve above 100 clamps", window: 1000, reserve: 150, expectedPrompt: 0},
		{name: "negative window", window: -10, reserve: 10, expectedPrompt: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBudgetWithReserve(tt.window, tt.reserve)
			assert.Equal(t, tt.expectedPrompt, b.Prompt)
			assert.Equal(t, b.ContextWindow, b.Prompt+b.Reserved)
		})
	}
}

func TestForModel(t *testing.T) {
	b := ForModel("claude-sonnet-4", 10)
	assert.Equal(t, 200000, b.ContextWindow)
	assert.Equal(t, 180000, b.Prompt)
}

func TestBudget_Remaining(t *testing.T) {
	b := NewBudgetWithReserve(1000, 0)

	assert.Equal(t, 1000, b.Remaining(0))
	assert.Equal(t, 400, b.Remaining(600))
	assert.Equal(t, 0, b.Remaining(1200))
	assert.True(t, b.Fits(1000))
	assert.False(t, b.Fits(1001))
}

func TestShare(t *testing.T) {
	assert.Equal(t, 50, Share(100, 50))
	assert.Equal(t, 0, Share(0, 50))
	assert.Equal(t, 0, Share(-10, 50))
	assert.Equal(t, 100, Share(100, 200))

	b := NewBudgetWithReserve(1000, 0)
	assert.Equal(t, 300, b.Share(400, 50))
}
