package model

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/promptkit/prompt"
	"github.com/randalmurphal/promptkit/template"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Catalog is a set of instruction templates declared in YAML.
type Catalog struct {
	Default   CatalogEntry   `yaml:"default"`
	Templates []CatalogEntry `yaml:"templates"`
}

// CatalogEntry declares one template.
type CatalogEntry struct {
	Name string `yaml:"name"`
	// Predicate names a built-in predicate (see Predicates).
	Predicate string    `yaml:"predicate,omitempty"`
	Prefixes  []string  `yaml:"prefixes,omitempty"`
	Sections  []Section `yaml:"sections"`
}

// Section is one weighted block of instructions.
type Section struct {
	Name string `yaml:"name"`
	// Priority defaults to InstructionPriority.
	Priority int    `yaml:"priority,omitempty"`
	Text     string `yaml:"text"`
	// Atomic sections are kept whole or dropped.
	Atomic bool `yaml:"atomic,omitempty"`
}

// Predicates are the named predicates a catalog may reference.
var Predicates = map[string]Predicate{
	"codex": func(_ context.Context, id Identity) bool {
		return id.Alias().IsCodex()
	},
}

// ParseCatalog decodes a YAML catalog and checks that every template
// parses and every predicate exists.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	engine := template.NewEngine()
	entries := append([]CatalogEntry{c.Default}, c.Templates...)
	for i, e := range entries {
		if i > 0 && e.Name == "" {
			return nil, fmt.Errorf("%w: template %d has no name", ErrCatalog, i-1)
		}
		if e.Predicate != "" {
			if _, ok := Predicates[e.Predicate]; !ok {
				return nil, fmt.Errorf("%w: %s: unknown predicate %q", ErrCatalog, e.Name, e.Predicate)
			}
		}
		for _, s := range e.Sections {
			if _, err := engine.Parse(s.Text); err != nil {
				return nil, fmt.Errorf("%w: %s/%s: %w", ErrCatalog, e.Name, s.Name, err)
			}
		}
	}
	return &c, nil
}

// BuiltinCatalog returns the embedded catalog.
func BuiltinCatalog() *Catalog {
	c, err := ParseCatalog(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("model: embedded catalog: %v", err))
	}
	return c
}

// Register adds the catalog's templates to r and makes its default entry
// the fallback.
func (c *Catalog) Register(r *Registry, engine *template.Engine) error {
	if engine == nil {
		engine = template.NewEngine()
	}
	for _, e := range c.Templates {
		t := Template{
			Name:     e.Name,
			Prefixes: e.Prefixes,
			Builder:  e.builder(engine),
		}
		if e.Predicate != "" {
			t.Match = Predicates[e.Predicate]
		}
		if err := r.Register(t); err != nil {
			return err
		}
	}
	if len(c.Default.Sections) > 0 {
		d := c.Default
		if d.Name == "" {
			d.Name = DefaultTemplateName
		}
		r.SetFallback(d.builder(engine))
	}
	return nil
}

// RegisterDefaults registers the built-in catalog. Call it once at startup.
func RegisterDefaults(r *Registry) error {
	return BuiltinCatalog().Register(r, nil)
}

func (e CatalogEntry) builder(engine *template.Engine) InstructionBuilder {
	return BuilderFunc(func(ic InstructionContext) (prompt.Node, error) {
		vars := templateVars(ic)
		children := make([]prompt.Node, 0, len(e.Sections))
		for _, s := range e.Sections {
			text, err := engine.Render(s.Text, vars)
			if err != nil {
				return nil, fmt.Errorf("instructions %s/%s: %w", e.Name, s.Name, err)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			priority := s.Priority
			if priority == 0 {
				priority = InstructionPriority
			}
			var content prompt.Node = prompt.Text(text)
			if s.Atomic {
				content = prompt.Atomic(content)
			}
			children = append(children, prompt.Prioritized(priority, content).Named("instructions/"+e.Name+"/"+s.Name))
		}
		return prompt.Group(children...), nil
	})
}

func templateVars(ic InstructionContext) map[string]any {
	tools := ic.Tools
	if tools == nil {
		tools = []string{}
	}
	vars := map[string]any{
		"model":   ic.Identity.Model(),
		"family":  ic.Identity.Family,
		"version": ic.Identity.Version,
		"alias":   string(ic.Identity.Alias()),
		"tier":    ic.Identity.Tier().String(),
		"tools":   tools,
	}
	for k, v := range ic.Vars {
		vars[k] = v
	}
	return vars
}
