package template

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Engine renders instruction templates with variable substitution.
// It accepts Go template syntax and a small Handlebars-like dialect that is
// converted before parsing. Compiled templates are cached by source, so an
// Engine is cheap to reuse across turns and safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	funcs    template.FuncMap
	compiled map[string]*template.Template
}

// NewEngine creates a new template engine with the default helper functions.
func NewEngine() *Engine {
	return &Engine{
		funcs:    defaultFuncs(),
		compiled: make(map[string]*template.Template),
	}
}

// Render executes the template with the given variables.
func (e *Engine) Render(templateStr string, variables map[string]any) (string, error) {
	tmpl, err := e.compile(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if execErr := tmpl.Execute(&buf, variables); execErr != nil {
		return "", fmt.Errorf("%w: %w", ErrExecute, execErr)
	}
	return buf.String(), nil
}

// Parse validates the template and returns the variable names it references.
func (e *Engine) Parse(templateStr string) ([]string, error) {
	if _, err := e.compile(templateStr); err != nil {
		return nil, err
	}
	return extractVariables(templateStr), nil
}

// AddFunc adds a custom template function. Templates compiled before the
// call keep their old function set.
func (e *Engine) AddFunc(name string, fn any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.funcs[name] = fn
	clear(e.compiled)
}

func (e *Engine) compile(templateStr string) (*template.Template, error) {
	if templateStr == "" {
		return nil, ErrEmpty
	}

	e.mu.RLock()
	tmpl, ok := e.compiled[templateStr]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	tmpl, err := template.New("instructions").
		Funcs(e.funcs).
		Parse(convertSyntax(templateStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	e.compiled[templateStr] = tmpl
	return tmpl, nil
}

// ValidateVariables checks that all required variables are provided.
func ValidateVariables(required []string, provided map[string]any) error {
	for _, name := range required {
		if _, ok := provided[name]; !ok {
			return fmt.Errorf("%w: %s", ErrVariable, name)
		}
	}
	return nil
}
