package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/promptkit/prompt"
	"github.com/randalmurphal/promptkit/tokens"
	"github.com/randalmurphal/promptkit/truncate"
)

// Renderer renders prompt trees within a token budget. A Renderer holds no
// per-render state and is safe for concurrent use when its estimator is.
type Renderer struct {
	estimator tokens.Estimator
	truncator *truncate.Truncator
	logger    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for allocation decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTruncationSuffix appends suffix to text cut to fit its allocation.
// The suffix counts against the allocation. The default is no suffix.
func WithTruncationSuffix(suffix string) Option {
	return func(r *Renderer) {
		r.truncator.WithSuffix(suffix)
	}
}

// New creates a renderer measuring text with estimator. A nil estimator
// falls back to the character heuristic.
func New(estimator tokens.Estimator, opts ...Option) *Renderer {
	if estimator == nil {
		estimator = tokens.NewEstimatingCounter()
	}
	r := &Renderer{
		estimator: estimator,
		truncator: truncate.NewFromEnd().WithEstimator(estimator).WithSuffix(""),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Estimator returns the renderer's estimator.
func (r *Renderer) Estimator() tokens.Estimator {
	return r.estimator
}

// Render resolves Async nodes, allocates budget across the tree and
// serializes the result. On error no result is returned. Errors match
// prompt.ErrCancelled, prompt.ErrBudgetExceeded, prompt.ErrInvalidTree,
// prompt.ErrEstimator or prompt.ErrProducer.
func (r *Renderer) Render(ctx context.Context, root prompt.Node, budget int) (*Result, error) {
	pieces, err := r.RenderPieces(ctx, root, budget)
	if err != nil {
		return nil, err
	}
	return Serialize(pieces), nil
}

// RenderPieces is Render without the serialization step.
func (r *Renderer) RenderPieces(ctx context.Context, root prompt.Node, budget int) ([]Piece, error) {
	if budget < 0 {
		return nil, fmt.Errorf("%w: negative budget %d", prompt.ErrInvalidTree, budget)
	}
	if err := prompt.Validate(root); err != nil {
		return nil, err
	}

	resolved, err := resolve(ctx, root)
	if err != nil {
		if cause := ctx.Err(); cause != nil {
			return nil, prompt.Cancelled(cause)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, prompt.Cancelled(err)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, prompt.Cancelled(err)
	}
	if err := prompt.Validate(resolved); err != nil {
		return nil, err
	}

	m, err := r.measure(resolved, prompt.RootPath, "", prompt.PriorityRequired, true)
	if err != nil {
		return nil, err
	}
	if m.min > budget {
		return nil, &prompt.BudgetExceededError{
			Required: m.min,
			Budget:   budget,
			Nodes:    requiredNodes(m),
		}
	}

	pieces, used, err := r.renderSubtree(m, budget)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("prompt rendered",
		slog.Int("budget", budget),
		slog.Int("size", m.size),
		slog.Int("required", m.min),
		slog.Int("used", used))
	return pieces, nil
}
