package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/randalmurphal/promptkit/tokens"
	"github.com/randalmurphal/promptkit/truncate"
)

// ErrCondense indicates the condenser failed to produce a summary.
var ErrCondense = errors.New("history condensation failed")

// SummaryIDPrefix prefixes the IDs of synthetic summary turns.
const SummaryIDPrefix = "sum_"

// DefaultReservePercent is the share of the threshold kept free for the
// summary turn when choosing which turns to keep verbatim.
const DefaultReservePercent = 25

// Condenser writes the summary of a range of turns.
type Condenser interface {
	Condense(ctx context.Context, turns []Turn) (string, error)
}

// CondenserFunc adapts a function to Condenser.
type CondenserFunc func(ctx context.Context, turns []Turn) (string, error)

// Condense calls f.
func (f CondenserFunc) Condense(ctx context.Context, turns []Turn) (string, error) {
	return f(ctx, turns)
}

// TruncatingCondenser summarizes without a model: one line per turn, cut
// to MaxTokens. It is deterministic.
type TruncatingCondenser struct {
	Estimator tokens.Estimator
	MaxTokens int
}

// Condense lists the user requests and assistant replies of turns.
func (c TruncatingCondenser) Condense(_ context.Context, turns []Turn) (string, error) {
	var sb strings.Builder
	for _, t := range turns {
		if t.Synthetic {
			sb.WriteString(strings.TrimSpace(t.Summary))
			sb.WriteString("\n")
			continue
		}
		if t.UserText != "" {
			sb.WriteString("- user: " + firstLine(t.UserText) + "\n")
		}
		for _, inv := range t.ToolInvocations {
			status := "ok"
			if inv.Failed() {
				status = "failed"
			}
			sb.WriteString("- tool " + inv.ToolName + ": " + status + "\n")
		}
		if t.AssistantText != "" {
			sb.WriteString("- assistant: " + firstLine(t.AssistantText) + "\n")
		}
	}
	text := sb.String()
	if c.MaxTokens <= 0 {
		return text, nil
	}

	tr := truncate.NewFromEnd()
	if c.Estimator != nil {
		tr = tr.WithEstimator(c.Estimator)
	}
	out, _, err := tr.Truncate(text, c.MaxTokens)
	return out, err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// Summarizer decides when to collapse older turns into one summary turn.
type Summarizer struct {
	estimator      tokens.Estimator
	condenser      Condenser
	cache          Cache
	reservePercent int
	logger         *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithCondenser sets the collaborator that writes summaries.
func WithCondenser(c Condenser) Option {
	return func(s *Summarizer) {
		if c != nil {
			s.condenser = c
		}
	}
}

// WithCache reuses summaries of ranges seen before.
func WithCache(c Cache) Option {
	return func(s *Summarizer) { s.cache = c }
}

// WithReservePercent sets the share of the threshold kept for the summary.
// Values are clamped to [0, 90].
func WithReservePercent(percent int) Option {
	return func(s *Summarizer) { s.reservePercent = min(max(percent, 0), 90) }
}

// WithLogger sets the summarizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummarizer creates a summarizer measuring turns with est. Without a
// condenser it uses a TruncatingCondenser limited to the reserve.
func NewSummarizer(est tokens.Estimator, opts ...Option) *Summarizer {
	if est == nil {
		est = tokens.NewEstimatingCounter()
	}
	s := &Summarizer{
		estimator:      est,
		reservePercent: DefaultReservePercent,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of MaybeSummarize.
type Result struct {
	// Kept are the turns kept verbatim, including earlier summary turns.
	Kept []Turn
	// Summary replaces the collapsed turns; nil when nothing was collapsed.
	Summary *Turn
	// Collapsed is the number of turns the summary replaces.
	Collapsed int
	// Overflow is set when the most recent turn alone exceeds the threshold.
	Overflow bool
	// Tokens is the estimate of the kept turns, without the summary.
	Tokens int
}

// Turns returns the history to render: earlier summaries, the new summary,
// then the kept turns.
func (r *Result) Turns() []Turn {
	out := make([]Turn, 0, len(r.Kept)+1)
	i := 0
	for ; i < len(r.Kept) && r.Kept[i].Synthetic; i++ {
		out = append(out, r.Kept[i])
	}
	if r.Summary != nil {
		out = append(out, *r.Summary)
	}
	return append(out, r.Kept[i:]...)
}

// MaybeSummarize keeps the most recent turns whose running estimate, plus
// the summary reserve, stays under threshold, and collapses every older turn
// into one synthetic summary. Existing summary turns are never collapsed
// again. The most recent turn is always kept; if it alone exceeds the
// threshold the result reports Overflow. When the whole history fits no
// summary is made.
func (s *Summarizer) MaybeSummarize(ctx context.Context, turns []Turn, threshold int) (*Result, error) {
	sizes := make([]int, len(turns))
	total := 0
	synthetic := 0
	for i, t := range turns {
		n, err := EstimateTurn(s.estimator, t)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
		total += n
		if t.Synthetic {
			synthetic += n
		}
	}

	res := &Result{Kept: turns, Tokens: total}
	if len(turns) == 0 {
		return res, nil
	}
	if last := sizes[len(sizes)-1]; last > threshold {
		res.Overflow = true
		s.logger.Warn("most recent turn exceeds history threshold",
			slog.String("turn", turns[len(turns)-1].ID),
			slog.Int("tokens", last),
			slog.Int("threshold", threshold))
	}
	if total <= threshold {
		return res, nil
	}

	reserve := threshold * s.reservePercent / 100
	cumulative := synthetic
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Synthetic {
			continue
		}
		if start < len(turns) && cumulative+sizes[i]+reserve >= threshold {
			break
		}
		cumulative += sizes[i]
		start = i
	}

	var collapsed, kept []Turn
	keptTokens := 0
	for i, t := range turns {
		switch {
		case t.Synthetic:
			kept = append(kept, t)
			keptTokens += sizes[i]
		case i < start:
			collapsed = append(collapsed, t)
		default:
			kept = append(kept, t)
			keptTokens += sizes[i]
		}
	}
	if len(collapsed) == 0 {
		return res, nil
	}

	summary, err := s.summarize(ctx, collapsed, reserve)
	if err != nil {
		return nil, err
	}
	s.logger.Info("history summarized",
		slog.Int("collapsed", len(collapsed)),
		slog.Int("kept", len(kept)),
		slog.Int("threshold", threshold))

	return &Result{
		Kept:      kept,
		Summary:   &summary,
		Collapsed: len(collapsed),
		Overflow:  res.Overflow,
		Tokens:    keptTokens,
	}, nil
}

func (s *Summarizer) summarize(ctx context.Context, collapsed []Turn, reserve int) (Turn, error) {
	key := RangeKey(collapsed)
	if s.cache != nil {
		if t, ok := s.cache.Get(key); ok {
			return t, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	condenser := s.condenser
	if condenser == nil {
		condenser = TruncatingCondenser{Estimator: s.estimator, MaxTokens: reserve}
	}
	text, err := condenser.Condense(ctx, collapsed)
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %w", ErrCondense, err)
	}

	covers := make([]string, len(collapsed))
	for i, t := range collapsed {
		covers[i] = t.ID
	}
	t := Turn{
		ID:        SummaryIDPrefix + uuid.NewString(),
		Synthetic: true,
		Summary:   text,
		Covers:    covers,
	}
	if s.cache != nil {
		s.cache.Add(key, t)
	}
	return t, nil
}
