// Package template renders instruction text with variable substitution.
//
// Templates use Go template syntax or a small Handlebars-like dialect:
//
//	You are {{assistant}}, running on {{family}} {{version}}.
//	{{#if tools}}Available tools:
//	{{bullets tools}}{{/if}}
//
// Helpers: upper, lower, trim, join, bullets, default, indent, json.
//
//	engine := template.NewEngine()
//	text, err := engine.Render(src, map[string]any{"assistant": "Ada"})
//
// Compiled templates are cached per Engine, keyed by source text.
package template
