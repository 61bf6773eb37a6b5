package model

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/randalmurphal/promptkit/prompt"
)

// InstructionContext carries what an instruction builder may depend on.
type InstructionContext struct {
	Identity Identity
	// Tools are the names of the tools offered for the turn.
	Tools []string
	// Vars are extra template variables. They override built-in ones.
	Vars map[string]any
}

// InstructionBuilder builds the model-specific instruction subtree. The
// returned node carries no role; callers place it in a message.
type InstructionBuilder interface {
	Build(ic InstructionContext) (prompt.Node, error)
}

// BuilderFunc adapts a function to InstructionBuilder.
type BuilderFunc func(ic InstructionContext) (prompt.Node, error)

// Build calls f.
func (f BuilderFunc) Build(ic InstructionContext) (prompt.Node, error) {
	return f(ic)
}

// Predicate reports whether a template applies to a model. It must be
// deterministic and must not reach the network.
type Predicate func(ctx context.Context, id Identity) bool

// Template is a registered instruction template.
type Template struct {
	Name string
	// Match, when set, is evaluated before any prefix.
	Match Predicate
	// Prefixes are matched against the model family.
	Prefixes []string
	Builder  InstructionBuilder
}

// MatchKind records how a template was resolved.
type MatchKind string

// Match kinds.
const (
	MatchPredicate MatchKind = "predicate"
	MatchPrefix    MatchKind = "prefix"
	MatchDefault   MatchKind = "default"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Name    string
	Kind    MatchKind
	Builder InstructionBuilder
}

// DefaultTemplateName names the fallback resolution.
const DefaultTemplateName = "default"

// Registry maps model identities to instruction builders. Templates are
// registered once at startup and resolved per render. A Registry is safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates []Template
	names     map[string]bool
	fallback  InstructionBuilder
	logger    *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFallback sets the builder returned when nothing matches.
func WithFallback(b InstructionBuilder) RegistryOption {
	return func(r *Registry) {
		if b != nil {
			r.fallback = b
		}
	}
}

// NewRegistry creates an empty registry. Its fallback renders
// DefaultInstructions until replaced by WithFallback or SetFallback.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		names:    make(map[string]bool),
		fallback: StaticInstructions(DefaultTemplateName, DefaultInstructions),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a template. Templates are tried in registration order.
func (r *Registry) Register(t Template) error {
	if t.Name == "" || t.Builder == nil {
		return fmt.Errorf("%w: name and builder are required", ErrInvalidTemplate)
	}
	if t.Match == nil && len(t.Prefixes) == 0 {
		return fmt.Errorf("%w: %s has neither predicate nor prefixes", ErrInvalidTemplate, t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[t.Name] {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Name)
	}
	t.Prefixes = append([]string(nil), t.Prefixes...)
	r.templates = append(r.templates, t)
	r.names[t.Name] = true
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(t Template) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("model.MustRegister(%q): %v", t.Name, err))
	}
}

// SetFallback replaces the builder returned when nothing matches.
func (r *Registry) SetFallback(b InstructionBuilder) {
	if b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = b
}

// Resolve returns the builder for a model. Predicates are evaluated first,
// in registration order; then family prefixes, in registration order. When
// nothing matches the fallback is returned. Resolution never fails.
func (r *Registry) Resolve(ctx context.Context, id Identity) Resolution {
	r.mu.RLock()
	templates := r.templates
	fallback := r.fallback
	r.mu.RUnlock()

	for _, t := range templates {
		if t.Match != nil && t.Match(ctx, id) {
			return Resolution{Name: t.Name, Kind: MatchPredicate, Builder: t.Builder}
		}
	}

	family := strings.ToLower(id.Family)
	for _, t := range templates {
		for _, p := range t.Prefixes {
			if strings.HasPrefix(family, strings.ToLower(p)) {
				return Resolution{Name: t.Name, Kind: MatchPrefix, Builder: t.Builder}
			}
		}
	}

	r.logger.Debug("no instruction template matched",
		slog.String("family", id.Family),
		slog.String("version", id.Version))
	return Resolution{Name: DefaultTemplateName, Kind: MatchDefault, Builder: fallback}
}

// Names returns the registered template names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.templates))
	for i, t := range r.templates {
		names[i] = t.Name
	}
	return names
}

// IsRegistered reports whether a template name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// DefaultInstructions is the fallback instruction text.
const DefaultInstructions = "Follow the user's instructions carefully. Answer accurately and concisely."

// StaticInstructions returns a builder for fixed text, kept at
// InstructionPriority.
func StaticInstructions(name, text string) InstructionBuilder {
	return BuilderFunc(func(InstructionContext) (prompt.Node, error) {
		return prompt.Prioritized(InstructionPriority, prompt.Text(text)).Named("instructions/" + name), nil
	})
}

// InstructionPriority is the default priority of instruction sections. It
// sits above context and history so instructions are cut last.
const InstructionPriority = 900
