// Package model resolves a model identity to the instruction subtree used
// when prompting it.
//
// # Registry
//
// Templates are registered once at startup and tried in order: custom
// predicates first, then family prefixes. When nothing matches, the
// registry's fallback builder is used, so resolution never fails:
//
//	reg := model.NewRegistry()
//	if err := model.RegisterDefaults(reg); err != nil {
//	    return err
//	}
//	res := reg.Resolve(ctx, model.Identity{Family: "claude", Version: "sonnet-4-5"})
//	node, err := res.Builder.Build(model.InstructionContext{
//	    Identity: id,
//	    Tools:    []string{"read_file", "grep"},
//	})
//
// # Catalog
//
// The built-in templates live in an embedded YAML catalog. Each template is
// a list of sections rendered with the template package and wrapped in a
// Weighted node, so lower-priority guidance is cut first under a tight
// budget. Custom catalogs are loaded with ParseCatalog and Catalog.Register.
//
// # Names
//
// NormalizeModelName maps full identifiers to family aliases
// ("claude-opus-4-5-20251101" -> "opus", "gpt-5.3-codex-spark" ->
// "codex-spark") and TierForModel maps aliases to capability tiers. The
// built-in codex template matches through its alias rather than a prefix,
// since codex models share the "gpt" family.
package model
