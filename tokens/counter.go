package tokens

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// FitsInLimit returns true if the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// Estimator is the fallible counting contract used while rendering prompts.
// Implementations must be deterministic and monotonic: a longer text never
// counts fewer tokens than any of its prefixes.
type Estimator interface {
	Estimate(text string) (int, error)
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(text string) (int, error)

// Estimate calls f(text).
func (f EstimatorFunc) Estimate(text string) (int, error) {
	return f(text)
}

// TokenTruncator is implemented by estimators that can cut text at an exact
// token boundary. The returned text must estimate to at most maxTokens.
type TokenTruncator interface {
	TruncateTokens(text string, maxTokens int) (string, error)
}

// FromCounter adapts an infallible Counter to an Estimator.
func FromCounter(c Counter) Estimator {
	if e, ok := c.(Estimator); ok {
		return e
	}
	return EstimatorFunc(func(text string) (int, error) {
		return c.Count(text), nil
	})
}

// EstimatingCounter uses a character-to-token ratio for estimation.
// Default ratio is ~4 chars per token.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a token counter with default settings.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{
		CharsPerToken: DefaultCharsPerToken,
	}
}

// NewEstimatingCounterWithRatio creates a token counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio (4.0) is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{
		CharsPerToken: charsPerToken,
	}
}

// Count estimates the number of tokens in the given text by counting runes,
// so multi-byte characters count once. Counts round up: the counts of the
// parts of a text never sum to less than the count of the whole.
func (c *EstimatingCounter) Count(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	runeCount := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(runeCount) / ratio))
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Estimate implements Estimator. It never fails.
func (c *EstimatingCounter) Estimate(text string) (int, error) {
	return c.Count(text), nil
}

// EstimateTokens is a convenience function using the default estimator.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}

// EstimateMessages sums the estimates of message contents plus a fixed
// per-message overhead for role and framing tokens.
func EstimateMessages(e Estimator, perMessage int, contents ...string) (int, error) {
	total := 0
	for _, c := range contents {
		n, err := e.Estimate(c)
		if err != nil {
			return 0, err
		}
		total += n + perMessage
	}
	return total, nil
}

// ModelLimits contains context window sizes keyed by model family prefix.
var ModelLimits = map[string]int{
	"claude":  200000,
	"gpt-5":   400000,
	"gpt-4.1": 1047576,
	"gpt-4o":  128000,
	"o3":      200000,
	"o4":      200000,
	"gemini":  1048576,

	"default": 100000,
}

// GetModelLimit returns the context window for a model. Exact keys win, then
// the longest matching family prefix, then the "default" entry.
func GetModelLimit(model string) int {
	lower := strings.ToLower(model)
	if limit, ok := ModelLimits[lower]; ok {
		return limit
	}

	prefixes := make([]string, 0, len(ModelLimits))
	for prefix := range ModelLimits {
		if prefix != "default" && strings.HasPrefix(lower, prefix) {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) > 0 {
		sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
		return ModelLimits[prefixes[0]]
	}
	return ModelLimits["default"]
}
