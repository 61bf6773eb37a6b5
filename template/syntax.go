package template

import (
	"regexp"
	"strings"
)

// goTemplateKeywords are not converted to variable references.
var goTemplateKeywords = map[string]bool{
	"else": true, "end": true, "if": true, "range": true,
	"with": true, "define": true, "template": true, "block": true,
}

var (
	ifOpen      = regexp.MustCompile(`\{\{#if\s+(\w+)\}\}`)
	eachOpen    = regexp.MustCompile(`\{\{#each\s+(\w+)\}\}`)
	bareVar     = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)
	controlVar  = regexp.MustCompile(`\{\{#(?:if|each)\s+([a-zA-Z_]\w*)\}\}`)
	helperFirst = regexp.MustCompile(`\{\{(\w+)\s+([a-zA-Z_]\w*)`)
	helperCalls = compileHelperCalls()
)

func compileHelperCalls() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(helperNames))
	for _, h := range helperNames {
		out[h] = regexp.MustCompile(`\{\{` + h + `\s+([^{}]+)\}\}`)
	}
	return out
}

// convertSyntax rewrites the Handlebars-like dialect to Go template syntax:
//
//	{{name}}              -> {{.name}}
//	{{#if x}}..{{/if}}    -> {{if .x}}..{{end}}
//	{{#each xs}}..{{/each}} -> {{range .xs}}..{{end}}
//	{{upper name}}        -> {{upper .name}}
func convertSyntax(input string) string {
	out := ifOpen.ReplaceAllString(input, "{{if .$1}}")
	out = eachOpen.ReplaceAllString(out, "{{range .$1}}")
	out = strings.ReplaceAll(out, "{{/if}}", "{{end}}")
	out = strings.ReplaceAll(out, "{{/each}}", "{{end}}")

	out = bareVar.ReplaceAllStringFunc(out, func(match string) string {
		name := match[2 : len(match)-2]
		if goTemplateKeywords[name] {
			return match
		}
		return "{{." + name + "}}"
	})

	for _, h := range helperNames {
		out = helperCalls[h].ReplaceAllStringFunc(out, func(match string) string {
			args := strings.TrimSpace(match[len("{{")+len(h) : len(match)-2])
			return "{{" + h + " " + convertArguments(args) + "}}"
		})
	}
	return out
}

// convertArguments prefixes bare identifiers with a dot and leaves literals
// and existing expressions alone.
func convertArguments(args string) string {
	parts := splitArguments(args)
	for i, part := range parts {
		if isValidIdentifier(part) && part != "true" && part != "false" && part != "nil" {
			parts[i] = "." + part
		}
	}
	return strings.Join(parts, " ")
}

// splitArguments splits on spaces outside quoted strings.
func splitArguments(args string) []string {
	var parts []string
	var current strings.Builder
	var quote rune

	for _, ch := range args {
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
			current.WriteRune(ch)
		case quote != 0 && ch == quote:
			quote = 0
			current.WriteRune(ch)
		case quote == 0 && ch == ' ':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		letter := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		digit := ch >= '0' && ch <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}

// extractVariables returns the distinct variable names a template uses, in
// order of first appearance by pattern.
func extractVariables(templateStr string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if !seen[name] && !goTemplateKeywords[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	for _, m := range bareVar.FindAllStringSubmatch(templateStr, -1) {
		add(m[1])
	}
	for _, m := range controlVar.FindAllStringSubmatch(templateStr, -1) {
		add(m[1])
	}
	for _, m := range helperFirst.FindAllStringSubmatch(templateStr, -1) {
		if _, isHelper := helperCalls[m[1]]; isHelper {
			add(m[2])
		}
	}
	return result
}
