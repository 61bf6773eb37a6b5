package truncate

import (
	"fmt"

	"github.com/randalmurphal/promptkit/tokens"
)

// Strategy defines how text is truncated.
type Strategy int

const (
	// FromEnd removes content from the end (default).
	FromEnd Strategy = iota

	// FromMiddle removes content from the middle, keeping start and end.
	FromMiddle

	// FromStart removes content from the start.
	FromStart
)

// String returns the strategy name used in configuration.
func (s Strategy) String() string {
	switch s {
	case FromMiddle:
		return "middle"
	case FromStart:
		return "start"
	default:
		return "end"
	}
}

// ParseStrategy maps a configuration name ("end", "middle", "start") to a
// Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "end":
		return FromEnd, nil
	case "middle":
		return FromMiddle, nil
	case "start":
		return FromStart, nil
	}
	return FromEnd, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// DefaultEndSuffix is the default suffix for end truncation.
const DefaultEndSuffix = "..."

// DefaultMiddleSuffix is the default suffix for middle truncation.
const DefaultMiddleSuffix = "\n...[content truncated]...\n"

// DefaultStartSuffix is the default suffix for start truncation.
const DefaultStartSuffix = "..."

// Truncator truncates text to fit within token limits.
type Truncator struct {
	estimator tokens.Estimator
	strategy  Strategy
	suffix    string
}

// New creates a truncator with the given strategy.
func New(strategy Strategy) *Truncator {
	suffix := DefaultEndSuffix
	if strategy == FromMiddle {
		suffix = DefaultMiddleSuffix
	}
	return &Truncator{
		estimator: tokens.NewEstimatingCounter(),
		strategy:  strategy,
		suffix:    suffix,
	}
}

// NewFromEnd creates a truncator that removes content from the end.
func NewFromEnd() *Truncator {
	return New(FromEnd)
}

// NewFromMiddle creates a truncator that removes content from the middle.
func NewFromMiddle() *Truncator {
	return New(FromMiddle)
}

// NewFromStart creates a truncator that removes content from the start.
func NewFromStart() *Truncator {
	return New(FromStart)
}

// WithCounter sets a custom token counter.
func (t *Truncator) WithCounter(counter tokens.Counter) *Truncator {
	t.estimator = tokens.FromCounter(counter)
	return t
}

// WithEstimator sets the estimator used to measure candidates.
func (t *Truncator) WithEstimator(estimator tokens.Estimator) *Truncator {
	t.estimator = estimator
	return t
}

// WithSuffix sets a custom suffix for truncation. An empty suffix makes
// truncation a plain cut.
func (t *Truncator) WithSuffix(suffix string) *Truncator {
	t.suffix = suffix
	return t
}

// Truncate reduces the text to fit within maxTokens. It returns the
// truncated text and whether truncation occurred. The result never splits a
// rune and, when the estimator can cut at token boundaries, never splits a
// token. Estimator failures are returned unchanged.
func (t *Truncator) Truncate(text string, maxTokens int) (string, bool, error) {
	fits, err := t.fits(text, maxTokens)
	if err != nil {
		return "", false, err
	}
	if fits {
		return text, false, nil
	}

	// Pieces measured separately can count differently once joined, so
	// search for the largest target whose joined result fits.
	out, ok, err := t.cutWithin(text, maxTokens, maxTokens)
	if err != nil {
		return "", false, err
	}
	if ok {
		return out, true, nil
	}
	best := ""
	low, high := 1, maxTokens-1
	for low <= high {
		mid := low + (high-low)/2
		out, ok, err := t.cutWithin(text, mid, maxTokens)
		if err != nil {
			return "", false, err
		}
		if ok {
			best = out
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return best, true, nil
}

// cutWithin cuts text to target and reports whether the result fits limit.
func (t *Truncator) cutWithin(text string, target, limit int) (string, bool, error) {
	out, err := t.cut(text, target)
	if err != nil {
		return "", false, err
	}
	ok, err := t.fits(out, limit)
	if err != nil {
		return "", false, err
	}
	return out, ok, nil
}

func (t *Truncator) cut(text string, maxTokens int) (string, error) {
	switch t.strategy {
	case FromMiddle:
		return t.truncateMiddle(text, maxTokens)
	case FromStart:
		return t.truncateStart(text, maxTokens)
	default:
		return t.truncateEnd(text, maxTokens)
	}
}

// Strategy returns the truncator's strategy.
func (t *Truncator) Strategy() Strategy {
	return t.strategy
}

// Suffix returns the truncator's suffix.
func (t *Truncator) Suffix() string {
	return t.suffix
}

func (t *Truncator) fits(text string, limit int) (bool, error) {
	n, err := t.estimator.Estimate(text)
	if err != nil {
		return false, err
	}
	return n <= limit, nil
}

// ToTokens truncates text from the end with the default estimating counter.
func ToTokens(text string, maxTokens int) string {
	// The estimating counter never fails.
	result, _, _ := NewFromEnd().Truncate(text, maxTokens)
	return result
}
