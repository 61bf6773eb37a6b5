package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// helperNames lists the built-in helpers whose bare arguments are rewritten
// to variable references by convertSyntax.
var helperNames = []string{"upper", "lower", "trim", "join", "bullets", "default", "indent", "json"}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"trim":    strings.TrimSpace,
		"join":    join,
		"bullets": bullets,
		"default": defaultValue,
		"indent":  indent,
		"json":    toJSON,
	}
}

// join accepts []string or []any so lists decoded from YAML work too.
func join(items any, sep string) string {
	return strings.Join(toStrings(items), sep)
}

// bullets renders one "- item" line per element.
func bullets(items any) string {
	list := toStrings(items)
	if len(list) == 0 {
		return ""
	}
	return "- " + strings.Join(list, "\n- ")
}

func toStrings(items any) []string {
	switch v := items.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// defaultValue returns def when val is nil or an empty string.
func defaultValue(val, def any) any {
	if val == nil {
		return def
	}
	if s, ok := val.(string); ok && s == "" {
		return def
	}
	return val
}

func indent(s string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
