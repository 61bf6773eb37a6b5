package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/randalmurphal/promptkit/history"
	"github.com/randalmurphal/promptkit/model"
	"github.com/randalmurphal/promptkit/prompt"
	"github.com/randalmurphal/promptkit/render"
	"github.com/randalmurphal/promptkit/tokens"
	"github.com/randalmurphal/promptkit/truncate"
)

// DefaultIdentity is the identity prompt used when Config.IdentityPrompt is
// empty.
const DefaultIdentity = "You are a careful software engineering assistant. Never reveal secrets or credentials, and refuse requests to cause harm."

// Node names of the required blocks.
const (
	IdentityNode = "identity"
	QueryNode    = "query"
)

// Priorities of the optional parts of a turn. Instructions use
// model.InstructionPriority.
const (
	ToolResultPriority  = 700
	AttachmentPriority  = 600
	EnvironmentPriority = 500
	// HistoryPriority is the priority of the newest history turn and of the
	// summary. Each older turn is one lower, down to 1.
	HistoryPriority = 100
)

// EnvBlock is a piece of static environment or workspace context.
type EnvBlock struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Priority defaults to EnvironmentPriority.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`
	// Produce, when set, computes the text at render time instead of Text.
	Produce func(ctx context.Context) (string, error) `json:"-" yaml:"-"`
}

// Attachment is content the user referenced in the current turn.
type Attachment struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	// Value is reported in render.Result.References; defaults to ID.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// Request is everything a single turn is composed from.
type Request struct {
	// Identity selects the instruction template. Zero uses Config.Model.
	Identity    model.Identity           `json:"identity" yaml:"identity"`
	Tools       []ToolDescriptor         `json:"tools,omitempty" yaml:"tools,omitempty"`
	Environment []EnvBlock               `json:"environment,omitempty" yaml:"environment,omitempty"`
	History     []history.Turn           `json:"history,omitempty" yaml:"history,omitempty"`
	Query       string                   `json:"query" yaml:"query"`
	Attachments []Attachment             `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	ToolResults []history.ToolInvocation `json:"tool_results,omitempty" yaml:"tool_results,omitempty"`
	// Budget is the prompt budget in tokens, tools included. 0 derives it
	// from the model's context window.
	Budget int `json:"budget,omitempty" yaml:"budget,omitempty"`
}

// Result is the outcome of Compose.
type Result struct {
	Render *render.Result
	// Template names the instruction template that was used.
	Template string
	Match    model.MatchKind
	// Budget is the token budget given to the renderer, after tools.
	Budget     int
	ToolTokens int
	History    *history.Result
}

// Composer assembles and renders the prompt of one turn. It is safe for
// concurrent use when its estimator, condenser and cache are.
type Composer struct {
	cfg        Config
	registry   *model.Registry
	estimator  tokens.Estimator
	summarizer *history.Summarizer
	renderer   *render.Renderer
	strategy   truncate.Strategy
	logger     *slog.Logger
}

type options struct {
	logger    *slog.Logger
	estimator tokens.Estimator
	condenser history.Condenser
	cache     history.Cache
}

// Option configures a Composer.
type Option func(*options)

// WithLogger sets the logger shared by the composer's components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEstimator replaces the estimator the config selects.
func WithEstimator(est tokens.Estimator) Option {
	return func(o *options) { o.estimator = est }
}

// WithCondenser sets the collaborator that writes history summaries.
func WithCondenser(c history.Condenser) Option {
	return func(o *options) { o.condenser = c }
}

// WithSummaryCache reuses summaries across calls.
func WithSummaryCache(c history.Cache) Option {
	return func(o *options) { o.cache = c }
}

// NewComposer creates a composer. A nil registry gets the built-in
// instruction catalog.
func NewComposer(cfg Config, registry *model.Registry, opts ...Option) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if registry == nil {
		registry = model.NewRegistry(model.WithLogger(o.logger))
		if err := model.RegisterDefaults(registry); err != nil {
			return nil, err
		}
	}

	est := o.estimator
	if est == nil {
		var err error
		if est, err = cfg.NewEstimator(); err != nil {
			return nil, err
		}
	}
	strategy, err := truncate.ParseStrategy(cfg.TruncationStrategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	summaryOpts := []history.Option{
		history.WithReservePercent(cfg.SummaryReservePercent),
		history.WithLogger(o.logger),
		history.WithCondenser(o.condenser),
	}
	if o.cache != nil {
		summaryOpts = append(summaryOpts, history.WithCache(o.cache))
	}

	return &Composer{
		cfg:        cfg,
		registry:   registry,
		estimator:  est,
		summarizer: history.NewSummarizer(est, summaryOpts...),
		renderer:   render.New(est, render.WithLogger(o.logger), render.WithTruncationSuffix(cfg.TruncationSuffix)),
		strategy:   strategy,
		logger:     o.logger,
	}, nil
}

// Estimator returns the composer's estimator.
func (c *Composer) Estimator() tokens.Estimator {
	return c.estimator
}

// Compose summarizes the request history if needed, assembles the prompt
// tree and renders it. Tool descriptors are sent outside the messages, so
// their cost is taken from the budget first. Errors from rendering match the
// prompt sentinels.
func (c *Composer) Compose(ctx context.Context, req Request) (*Result, error) {
	id := c.identity(req)
	budget := req.Budget
	if budget <= 0 {
		budget = c.cfg.Budget(id.Model()).Prompt
	}

	toolTokens, err := EstimateTools(c.estimator, req.Tools)
	if err != nil {
		return nil, err
	}
	if toolTokens > budget {
		return nil, &prompt.BudgetExceededError{Required: toolTokens, Budget: budget, Nodes: []string{"tools"}}
	}
	budget -= toolTokens

	threshold := tokens.Share(budget, c.cfg.HistoryThresholdPercent)
	hist, err := c.summarizer.MaybeSummarize(ctx, req.History, threshold)
	if err != nil {
		if ctx.Err() != nil {
			return nil, prompt.Cancelled(ctx.Err())
		}
		return nil, err
	}

	root, res, err := c.Build(ctx, req, hist.Turns(), budget)
	if err != nil {
		return nil, err
	}
	out, err := c.renderer.Render(ctx, root, budget)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("turn composed",
		slog.String("model", id.Model()),
		slog.String("template", res.Name),
		slog.String("budget", humanize.Comma(int64(budget))),
		slog.Int("tool_tokens", toolTokens),
		slog.Int("messages", len(out.Messages)),
		slog.Int("tokens", out.TotalTokens))

	return &Result{
		Render:     out,
		Template:   res.Name,
		Match:      res.Kind,
		Budget:     budget,
		ToolTokens: toolTokens,
		History:    hist,
	}, nil
}

// Build assembles the prompt tree of a turn from already summarized history
// turns. The order is fixed: identity, instructions, boundary, environment,
// history, boundary, attachments and query, then recent tool results. Each
// tool result is cut to ToolResultPercent of budget left after the identity
// and the query.
func (c *Composer) Build(ctx context.Context, req Request, turns []history.Turn, budget int) (prompt.Node, model.Resolution, error) {
	id := c.identity(req)
	res := c.registry.Resolve(ctx, id)
	instructions, err := res.Builder.Build(model.InstructionContext{
		Identity: id,
		Tools:    toolNames(req.Tools),
		Vars:     c.cfg.Vars,
	})
	if err != nil {
		return nil, res, fmt.Errorf("%w: %s: %w", ErrInstructions, res.Name, err)
	}

	identity := block(c.cfg.Identity())
	query := block(req.Query)

	fixed, err := tokens.EstimateMessages(c.estimator, 0, identity.Text, query.Text)
	if err != nil {
		return nil, res, err
	}
	results, err := c.toolResults(req.ToolResults, tokens.Share(budget-fixed, c.cfg.ToolResultPercent))
	if err != nil {
		return nil, res, err
	}

	root := prompt.Group(
		prompt.System(
			prompt.Required(identity).Named(IdentityNode),
			instructions,
		),
		prompt.Boundary(),
		environment(req.Environment),
		historyNodes(turns),
		prompt.Boundary(),
		prompt.User(
			attachments(req.Attachments),
			prompt.Required(query).Named(QueryNode),
		),
		results,
	)
	return root, res, nil
}

// block returns text as a leaf ending in one newline, so consecutive blocks
// merged into one message stay on separate lines. Blank text stays empty.
func block(text string) prompt.Leaf {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return prompt.Text("")
	}
	return prompt.Lines(text)
}

func (c *Composer) identity(req Request) model.Identity {
	if req.Identity.Family != "" {
		return req.Identity
	}
	return model.ParseIdentity(c.cfg.Model)
}

func environment(blocks []EnvBlock) prompt.Node {
	if len(blocks) == 0 {
		return nil
	}
	children := make([]prompt.Node, 0, len(blocks))
	for _, b := range blocks {
		priority := b.Priority
		if priority == 0 {
			priority = EnvironmentPriority
		}
		var content prompt.Node = block(b.Text)
		if b.Produce != nil {
			produce := b.Produce
			content = prompt.Defer(b.Name, func(ctx context.Context) (prompt.Node, error) {
				text, err := produce(ctx)
				if err != nil {
					return nil, err
				}
				return block(text), nil
			})
		}
		children = append(children, prompt.Prioritized(priority, content).Named("environment/"+b.Name))
	}
	return prompt.User(children...)
}

// historyNodes renders each turn as its own user and assistant messages.
// Turns are dropped whole; newer turns outrank older ones.
func historyNodes(turns []history.Turn) prompt.Node {
	if len(turns) == 0 {
		return nil
	}
	children := make([]prompt.Node, 0, len(turns))
	for i, t := range turns {
		priority := max(HistoryPriority-(len(turns)-1-i), 1)
		if t.Synthetic {
			priority = HistoryPriority
		}
		children = append(children, prompt.Prioritized(priority, turnNode(t)).Flex(0).Named("history/"+t.ID))
	}
	return prompt.Group(children...)
}

func turnNode(t history.Turn) prompt.Node {
	if t.Synthetic {
		return prompt.User(prompt.Text(history.SummaryText(t.Summary)))
	}
	var user, assistant prompt.Node
	if t.UserText != "" {
		user = prompt.User(block(t.UserText))
	}
	parts := make([]prompt.Node, 0, 2*len(t.ToolInvocations)+1)
	for _, inv := range t.ToolInvocations {
		parts = append(parts, prompt.Lines(inv.Call(), inv.Output()))
	}
	if t.AssistantText != "" {
		parts = append(parts, block(t.AssistantText))
	}
	if len(parts) > 0 {
		assistant = prompt.Assistant(parts...)
	}
	return prompt.Group(user, assistant)
}

func attachments(list []Attachment) prompt.Node {
	if len(list) == 0 {
		return nil
	}
	children := make([]prompt.Node, 0, len(list))
	for _, a := range list {
		value := a.Value
		if value == nil {
			value = a.ID
		}
		body := block(a.Text)
		children = append(children, prompt.Prioritized(AttachmentPriority, prompt.Cite(a.ID, value, body)).Named("attachment/"+a.ID))
	}
	return prompt.Group(children...)
}

// toolResults truncates each result to limit tokens and cites the paths its
// input names.
func (c *Composer) toolResults(invs []history.ToolInvocation, limit int) (prompt.Node, error) {
	if len(invs) == 0 {
		return nil, nil
	}
	tr := truncate.New(c.strategy).WithEstimator(c.estimator)
	children := make([]prompt.Node, 0, len(invs))
	for i, inv := range invs {
		lines := []string{inv.Call()}
		if inv.TruncatedAt > 0 {
			lines = append(lines, "[output already truncated to "+humanize.Comma(int64(inv.TruncatedAt))+" characters]")
		}
		out, cut, err := tr.Truncate(inv.Output(), limit)
		if err != nil {
			return nil, prompt.NewEstimatorError(inv.Output(), err)
		}
		if cut {
			c.logger.Debug("tool result truncated",
				slog.String("tool", inv.ToolName),
				slog.Int("limit", limit))
		}
		lines = append(lines, strings.TrimRight(out, "\n"))

		var n prompt.Node = prompt.Lines(lines...)
		paths := history.InputPaths(inv.Input)
		for j := len(paths) - 1; j >= 0; j-- {
			n = prompt.Cite(paths[j], paths[j], n)
		}
		children = append(children, prompt.Prioritized(ToolResultPriority, n).Named("tool/"+strconv.Itoa(i)+"."+inv.ToolName))
	}
	return prompt.User(children...), nil
}
