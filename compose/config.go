package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/promptkit/tokens"
	"github.com/randalmurphal/promptkit/truncate"
)

// Estimator encodings accepted by Config.Encoding besides the tiktoken
// encoding names.
const (
	// EncodingHeuristic counts tokens from the character length.
	EncodingHeuristic = "heuristic"
	// EncodingModel picks the tiktoken encoding associated with Config.Model.
	EncodingModel = "model"
)

// Config holds the settings of a Composer.
type Config struct {
	// --- Model ---

	// Model is the default model when a request names none.
	// Examples: "claude-sonnet-4-20250514", "gpt-5-codex".
	Model string `json:"model" yaml:"model" toml:"model"`

	// ContextWindow overrides the known context window of Model.
	// 0 uses tokens.GetModelLimit.
	ContextWindow int `json:"context_window" yaml:"context_window" toml:"context_window"`

	// --- Budget split ---

	// ResponseReservePercent of the context window is kept for the response.
	ResponseReservePercent int `json:"response_reserve_percent" yaml:"response_reserve_percent" toml:"response_reserve_percent"`

	// HistoryThresholdPercent of the prompt budget may hold history before
	// older turns are summarized.
	HistoryThresholdPercent int `json:"history_threshold_percent" yaml:"history_threshold_percent" toml:"history_threshold_percent"`

	// SummaryReservePercent of the history threshold is left for the summary
	// turn. At most 90.
	SummaryReservePercent int `json:"summary_reserve_percent" yaml:"summary_reserve_percent" toml:"summary_reserve_percent"`

	// ToolResultPercent caps each recent tool result to this share of the
	// budget left after the identity prompt and the query.
	ToolResultPercent int `json:"tool_result_percent" yaml:"tool_result_percent" toml:"tool_result_percent"`

	// TruncationStrategy cuts oversized tool results: "end", "middle" or
	// "start".
	TruncationStrategy string `json:"truncation_strategy" yaml:"truncation_strategy" toml:"truncation_strategy"`

	// TruncationSuffix is appended to content the renderer cuts to fit.
	// Empty means a plain cut.
	TruncationSuffix string `json:"truncation_suffix" yaml:"truncation_suffix" toml:"truncation_suffix"`

	// --- Prompts ---

	// IdentityPrompt replaces DefaultIdentity as the required first block.
	IdentityPrompt string `json:"identity_prompt" yaml:"identity_prompt" toml:"identity_prompt"`

	// Vars are passed to instruction templates and override built-in
	// variables.
	Vars map[string]any `json:"vars" yaml:"vars" toml:"vars"`

	// --- Token estimation ---

	// Encoding selects the estimator: "heuristic" (or empty), "model",
	// "cl100k_base" or "o200k_base".
	Encoding string `json:"encoding" yaml:"encoding" toml:"encoding"`

	// CharsPerToken is the ratio of the heuristic estimator.
	CharsPerToken float64 `json:"chars_per_token" yaml:"chars_per_token" toml:"chars_per_token"`

	// EstimatorCacheSize is the number of memoized estimates. 0 disables
	// the cache.
	EstimatorCacheSize int `json:"estimator_cache_size" yaml:"estimator_cache_size" toml:"estimator_cache_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ResponseReservePercent:  tokens.DefaultReservePercent,
		HistoryThresholdPercent: 40,
		SummaryReservePercent:   25,
		ToolResultPercent:       30,
		TruncationStrategy:      truncate.FromEnd.String(),
		Encoding:                EncodingHeuristic,
		CharsPerToken:           tokens.DefaultCharsPerToken,
		EstimatorCacheSize:      tokens.DefaultCacheSize,
	}
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the PROMPTKIT_ prefix and take precedence over
// existing values. Unparsable numbers are ignored.
//
// Supported variables:
//   - PROMPTKIT_MODEL: Model name
//   - PROMPTKIT_CONTEXT_WINDOW: Context window in tokens
//   - PROMPTKIT_RESPONSE_RESERVE_PERCENT
//   - PROMPTKIT_HISTORY_THRESHOLD_PERCENT
//   - PROMPTKIT_SUMMARY_RESERVE_PERCENT
//   - PROMPTKIT_TOOL_RESULT_PERCENT
//   - PROMPTKIT_TRUNCATION_STRATEGY: "end", "middle" or "start"
//   - PROMPTKIT_IDENTITY_PROMPT: Identity prompt
//   - PROMPTKIT_ENCODING: Estimator encoding
//   - PROMPTKIT_CHARS_PER_TOKEN: Heuristic ratio (e.g., "3.5")
//   - PROMPTKIT_ESTIMATOR_CACHE_SIZE
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("PROMPTKIT_MODEL"); v != "" {
		c.Model = v
	}
	envInt("PROMPTKIT_CONTEXT_WINDOW", &c.ContextWindow)
	envInt("PROMPTKIT_RESPONSE_RESERVE_PERCENT", &c.ResponseReservePercent)
	envInt("PROMPTKIT_HISTORY_THRESHOLD_PERCENT", &c.HistoryThresholdPercent)
	envInt("PROMPTKIT_SUMMARY_RESERVE_PERCENT", &c.SummaryReservePercent)
	envInt("PROMPTKIT_TOOL_RESULT_PERCENT", &c.ToolResultPercent)
	if v := os.Getenv("PROMPTKIT_TRUNCATION_STRATEGY"); v != "" {
		c.TruncationStrategy = v
	}
	if v := os.Getenv("PROMPTKIT_IDENTITY_PROMPT"); v != "" {
		c.IdentityPrompt = v
	}
	if v := os.Getenv("PROMPTKIT_ENCODING"); v != "" {
		c.Encoding = v
	}
	if v := os.Getenv("PROMPTKIT_CHARS_PER_TOKEN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CharsPerToken = f
		}
	}
	envInt("PROMPTKIT_ESTIMATOR_CACHE_SIZE", &c.EstimatorCacheSize)
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// FromEnv creates a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.LoadFromEnv()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ContextWindow < 0 {
		return fmt.Errorf("%w: context_window must be >= 0, got %d", ErrConfig, c.ContextWindow)
	}
	percents := []struct {
		name  string
		value int
		max   int
	}{
		{"response_reserve_percent", c.ResponseReservePercent, 100},
		{"history_threshold_percent", c.HistoryThresholdPercent, 100},
		{"summary_reserve_percent", c.SummaryReservePercent, 90},
		{"tool_result_percent", c.ToolResultPercent, 100},
	}
	for _, p := range percents {
		if p.value < 0 || p.value > p.max {
			return fmt.Errorf("%w: %s must be in [0, %d], got %d", ErrConfig, p.name, p.max, p.value)
		}
	}
	if _, err := truncate.ParseStrategy(c.TruncationStrategy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	switch c.Encoding {
	case "", EncodingHeuristic, EncodingModel, tokens.EncodingCL100kBase, tokens.EncodingO200kBase:
	default:
		return fmt.Errorf("%w: unknown encoding %q", ErrConfig, c.Encoding)
	}
	if c.CharsPerToken < 0 {
		return fmt.Errorf("%w: chars_per_token must be >= 0, got %v", ErrConfig, c.CharsPerToken)
	}
	if c.EstimatorCacheSize < 0 {
		return fmt.Errorf("%w: estimator_cache_size must be >= 0, got %d", ErrConfig, c.EstimatorCacheSize)
	}
	return nil
}

// NewEstimator builds the token estimator the config selects. Tiktoken
// encodings may need network access on first use.
func (c Config) NewEstimator() (tokens.Estimator, error) {
	var est tokens.Estimator
	switch c.Encoding {
	case "", EncodingHeuristic:
		ratio := c.CharsPerToken
		if ratio <= 0 {
			ratio = tokens.DefaultCharsPerToken
		}
		est = tokens.NewEstimatingCounterWithRatio(ratio)
	case EncodingModel:
		tc, err := tokens.NewTiktokenCounterForModel(c.Model)
		if err != nil {
			return nil, err
		}
		est = tc
	case tokens.EncodingCL100kBase, tokens.EncodingO200kBase:
		tc, err := tokens.NewTiktokenCounter(c.Encoding)
		if err != nil {
			return nil, err
		}
		est = tc
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrConfig, c.Encoding)
	}
	if c.EstimatorCacheSize > 0 {
		est = tokens.NewCachingEstimator(est, c.EstimatorCacheSize)
	}
	return est, nil
}

// Budget splits the context window of model, or of Config.Model when model
// is empty, into prompt and response tokens.
func (c Config) Budget(model string) *tokens.Budget {
	if c.ContextWindow > 0 {
		return tokens.NewBudgetWithReserve(c.ContextWindow, c.ResponseReservePercent)
	}
	if model == "" {
		model = c.Model
	}
	return tokens.ForModel(model, c.ResponseReservePercent)
}

// Identity returns the identity prompt, DefaultIdentity when unset.
func (c Config) Identity() string {
	if strings.TrimSpace(c.IdentityPrompt) == "" {
		return DefaultIdentity
	}
	return c.IdentityPrompt
}

// WithModel returns a copy of the config with the specified model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithEncoding returns a copy of the config with the specified encoding.
func (c Config) WithEncoding(encoding string) Config {
	c.Encoding = encoding
	return c
}

// WithContextWindow returns a copy of the config with the specified context
// window.
func (c Config) WithContextWindow(n int) Config {
	c.ContextWindow = n
	return c
}

// WithVar returns a copy of the config with the template variable set.
func (c Config) WithVar(key string, value any) Config {
	vars := make(map[string]any, len(c.Vars)+1)
	for k, v := range c.Vars {
		vars[k] = v
	}
	vars[key] = value
	c.Vars = vars
	return c
}

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions are treated as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseConfig decodes data over DefaultConfig and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte, format Format) (Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: yaml: %w", ErrConfig, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: toml: %w", ErrConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: toml: unknown key %q", ErrConfig, undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: json: %w", ErrConfig, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrConfig, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
