package tokens

// DefaultReservePercent is the default share of the context window kept free
// for the model's response.
const DefaultReservePercent = 10

// Budget splits a model context window into the part a rendered prompt may
// occupy and the part reserved for generation.
type Budget struct {
	// ContextWindow is the model's total context size in tokens.
	ContextWindow int
	// Prompt is the maximum number of tokens the rendered prompt may use.
	Prompt int
	// Reserved is kept free for the response.
	Reserved int
}

// NewBudget creates a budget reserving DefaultReservePercent for the response.
func NewBudget(contextWindow int) *Budget {
	return NewBudgetWithReserve(contextWindow, DefaultReservePercent)
}

// NewBudgetWithReserve creates a budget reserving reservePercent of the
// window. Percentages outside [0, 100] are clamped.
func NewBudgetWithReserve(contextWindow, reservePercent int) *Budget {
	if contextWindow < 0 {
		contextWindow = 0
	}
	reservePercent = min(max(reservePercent, 0), 100)
	reserved := contextWindow * reservePercent / 100
	return &Budget{
		ContextWindow: contextWindow,
		Prompt:        contextWindow - reserved,
		Reserved:      reserved,
	}
}

// ForModel creates a budget from the model's known context window.
func ForModel(model string, reservePercent int) *Budget {
	return NewBudgetWithReserve(GetModelLimit(model), reservePercent)
}

// Fits returns true if n tokens fit in the prompt budget.
func (b *Budget) Fits(n int) bool {
	return n <= b.Prompt
}

// Remaining returns the prompt tokens left after used, never negative.
func (b *Budget) Remaining(used int) int {
	return max(b.Prompt-used, 0)
}

// Share returns percent of the tokens remaining after used.
func (b *Budget) Share(used, percent int) int {
	return Share(b.Remaining(used), percent)
}

// Share returns percent of n, clamping percent to [0, 100].
func Share(n, percent int) int {
	percent = min(max(percent, 0), 100)
	if n <= 0 {
		return 0
	}
	return n * percent / 100
}
