package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Sentinel errors for render outcomes.
var (
	// ErrCancelled indicates the render was aborted by its context.
	ErrCancelled = errors.New("render cancelled")

	// ErrBudgetExceeded indicates required content alone exceeds the budget.
	ErrBudgetExceeded = errors.New("required content exceeds token budget")

	// ErrInvalidTree indicates a structural violation in the node tree.
	ErrInvalidTree = errors.New("invalid prompt tree")

	// ErrEstimator indicates the token estimator failed.
	ErrEstimator = errors.New("token estimation failed")

	// ErrProducer indicates an Async producer failed.
	ErrProducer = errors.New("async producer failed")
)

// BudgetExceededError reports the required content that did not fit.
type BudgetExceededError struct {
	Required int
	Budget   int
	// Nodes names the required nodes, by Weighted.Name where set and by
	// tree path otherwise.
	Nodes []string
}

func (e *BudgetExceededError) Error() string {
	msg := fmt.Sprintf("%s: need %s tokens, budget is %s",
		ErrBudgetExceeded.Error(),
		humanize.Comma(int64(e.Required)),
		humanize.Comma(int64(e.Budget)))
	if len(e.Nodes) > 0 {
		msg += " (required: " + strings.Join(e.Nodes, ", ") + ")"
	}
	return msg
}

// Unwrap returns ErrBudgetExceeded.
func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}

// ValidationError reports a structural violation at a tree path.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrInvalidTree.Error(), e.Path, e.Reason)
}

// Unwrap returns ErrInvalidTree.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTree
}

// EstimatorError reports an estimator failure for a piece of text.
type EstimatorError struct {
	// Preview is the start of the text that could not be measured.
	Preview string
	Err     error
}

func (e *EstimatorError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrEstimator.Error(), e.Preview, e.Err)
}

// Unwrap returns both ErrEstimator and the estimator's own error.
func (e *EstimatorError) Unwrap() []error {
	return []error{ErrEstimator, e.Err}
}

const previewLen = 40

// NewEstimatorError wraps err with a short preview of text.
func NewEstimatorError(text string, err error) *EstimatorError {
	runes := []rune(text)
	if len(runes) > previewLen {
		text = string(runes[:previewLen]) + "..."
	}
	return &EstimatorError{Preview: text, Err: err}
}

// Cancelled wraps cause so that it matches both ErrCancelled and the cause.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
