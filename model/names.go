package model

import "strings"

// ModelName is a normalized model family alias.
type ModelName string

// Claude aliases.
const (
	ModelOpus   ModelName = "opus"
	ModelSonnet ModelName = "sonnet"
	ModelHaiku  ModelName = "haiku"
)

// Codex aliases (agentic coding).
const (
	ModelCodex      ModelName = "codex"       // gpt-5.x-codex
	ModelCodexSpark ModelName = "codex-spark" // gpt-5.3-codex-spark
	ModelCodexMini  ModelName = "codex-mini"  // gpt-5.x-codex-mini
)

// GPT aliases (general-purpose OpenAI).
const (
	ModelGPT     ModelName = "gpt"      // gpt-5, gpt-5.1, gpt-5.2
	ModelGPTMini ModelName = "gpt-mini" // gpt-5-mini, gpt-5-nano
	ModelGPTPro  ModelName = "gpt-pro"  // gpt-5-pro, gpt-5.2-pro
)

// IsCodex reports whether the alias belongs to the codex line.
func (m ModelName) IsCodex() bool {
	switch m {
	case ModelCodex, ModelCodexSpark, ModelCodexMini:
		return true
	}
	return false
}

// Tier is a model capability tier. Instruction templates use it to pick
// how much guidance to spell out.
type Tier int

// Tier constants.
const (
	TierFast Tier = iota
	TierDefault
	TierThinking
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierDefault:
		return "default"
	case TierThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// TierForModel returns the tier for a model alias or full name.
func TierForModel(model ModelName) Tier {
	switch NormalizeModelName(string(model)) {
	case ModelOpus, ModelGPTPro:
		return TierThinking
	case ModelHaiku, ModelCodexSpark, ModelCodexMini, ModelGPTMini:
		return TierFast
	default:
		return TierDefault
	}
}

// NormalizeModelName converts a full model identifier to its family alias.
// For example, "claude-sonnet-4-20250514" becomes "sonnet" and
// "gpt-5.3-codex-spark" becomes "codex-spark". Names that match no known
// pattern are returned as-is.
func NormalizeModelName(name string) ModelName {
	switch ModelName(name) {
	case ModelOpus, ModelSonnet, ModelHaiku,
		ModelCodex, ModelCodexSpark, ModelCodexMini,
		ModelGPT, ModelGPTMini, ModelGPTPro:
		return ModelName(name)
	}
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "opus"):
		return ModelOpus
	case strings.Contains(lower, "sonnet"):
		return ModelSonnet
	case strings.Contains(lower, "haiku"):
		return ModelHaiku
	}

	// Specific codex patterns first.
	switch {
	case strings.Contains(lower, "codex-spark"), strings.Contains(lower, "codex_spark"):
		return ModelCodexSpark
	case strings.Contains(lower, "codex-mini"), strings.Contains(lower, "codex_mini"):
		return ModelCodexMini
	case strings.Contains(lower, "codex") && !strings.Contains(lower, "opencode"):
		return ModelCodex
	}

	// Codex names also contain "gpt", so GPT is checked last.
	if strings.HasPrefix(lower, "gpt-5") {
		switch {
		case strings.Contains(lower, "-pro"):
			return ModelGPTPro
		case strings.Contains(lower, "-mini"), strings.Contains(lower, "-nano"):
			return ModelGPTMini
		}
		return ModelGPT
	}

	return ModelName(name)
}
