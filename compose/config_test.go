package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptkit/tokens"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, tokens.DefaultReservePercent, cfg.ResponseReservePercent)
	assert.Equal(t, 40, cfg.HistoryThresholdPercent)
	assert.Equal(t, 25, cfg.SummaryReservePercent)
	assert.Equal(t, 30, cfg.ToolResultPercent)
	assert.Equal(t, "end", cfg.TruncationStrategy)
	assert.Equal(t, EncodingHeuristic, cfg.Encoding)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultIdentity, cfg.Identity())
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("PROMPTKIT_MODEL", "gpt-4o")
	t.Setenv("PROMPTKIT_CONTEXT_WINDOW", "32000")
	t.Setenv("PROMPTKIT_TOOL_RESULT_PERCENT", "50")
	t.Setenv("PROMPTKIT_HISTORY_THRESHOLD_PERCENT", "not a number")
	t.Setenv("PROMPTKIT_TRUNCATION_STRATEGY", "middle")
	t.Setenv("PROMPTKIT_CHARS_PER_TOKEN", "3.5")
	t.Setenv("PROMPTKIT_IDENTITY_PROMPT", "You are a reviewer.")

	cfg := FromEnv()

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 32000, cfg.ContextWindow)
	assert.Equal(t, 50, cfg.ToolResultPercent)
	assert.Equal(t, 40, cfg.HistoryThresholdPercent, "unparsable values are ignored")
	assert.Equal(t, "middle", cfg.TruncationStrategy)
	assert.InDelta(t, 3.5, cfg.CharsPerToken, 0.001)
	assert.Equal(t, "You are a reviewer.", cfg.Identity())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative context window", func(c *Config) { c.ContextWindow = -1 }},
		{"reserve over 100", func(c *Config) { c.ResponseReservePercent = 101 }},
		{"negative history threshold", func(c *Config) { c.HistoryThresholdPercent = -5 }},
		{"summary reserve over 90", func(c *Config) { c.SummaryReservePercent = 95 }},
		{"tool result over 100", func(c *Config) { c.ToolResultPercent = 120 }},
		{"unknown strategy", func(c *Config) { c.TruncationStrategy = "sideways" }},
		{"unknown encoding", func(c *Config) { c.Encoding = "p50k" }},
		{"negative ratio", func(c *Config) { c.CharsPerToken = -1 }},
		{"negative cache", func(c *Config) { c.EstimatorCacheSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "yaml",
			format: FormatYAML,
			data:   "model: claude-sonnet-4\ntool_result_percent: 20\nvars:\n  project: promptkit\n",
		},
		{
			name:   "toml",
			format: FormatTOML,
			data:   "model = \"claude-sonnet-4\"\ntool_result_percent = 20\n[vars]\nproject = \"promptkit\"\n",
		},
		{
			name:   "json",
			format: FormatJSON,
			data:   `{"model":"claude-sonnet-4","tool_result_percent":20,"vars":{"project":"promptkit"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.Equal(t, "claude-sonnet-4", cfg.Model)
			assert.Equal(t, 20, cfg.ToolResultPercent)
			assert.Equal(t, 40, cfg.HistoryThresholdPercent, "unset keys keep defaults")
			assert.Equal(t, "promptkit", cfg.Vars["project"])
		})
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml unknown key", FormatYAML, "modle: x\n"},
		{"toml unknown key", FormatTOML, "modle = \"x\"\n"},
		{"json unknown key", FormatJSON, `{"modle":"x"}`},
		{"invalid value", FormatYAML, "tool_result_percent: 200\n"},
		{"bad syntax", FormatTOML, "model = \n"},
		{"unknown format", Format("ini"), "model=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}

	cfg, err := ParseConfig(nil, FormatYAML)
	require.NoError(t, err, "an empty document is the default config")
	assert.Equal(t, DefaultConfig().ToolResultPercent, cfg.ToolResultPercent)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFromPath("promptkit.TOML"))
	assert.Equal(t, FormatJSON, FormatFromPath("/etc/promptkit.json"))
	assert.Equal(t, FormatYAML, FormatFromPath("promptkit.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("promptkit"))
}

func TestConfigNewEstimator(t *testing.T) {
	cfg := DefaultConfig()
	est, err := cfg.NewEstimator()
	require.NoError(t, err)
	_, cached := est.(*tokens.CachingEstimator)
	assert.True(t, cached)

	cfg.EstimatorCacheSize = 0
	cfg.CharsPerToken = 2
	est, err = cfg.NewEstimator()
	require.NoError(t, err)
	n, err := est.Estimate("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = cfg.WithEncoding("p50k").NewEstimator()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConfigBudget(t *testing.T) {
	cfg := DefaultConfig()

	b := cfg.WithContextWindow(1000).Budget("claude-sonnet-4")
	assert.Equal(t, 900, b.Prompt)
	assert.Equal(t, 100, b.Reserved)

	b = cfg.Budget("claude-sonnet-4")
	assert.Equal(t, 200000, b.ContextWindow)

	b = cfg.WithModel("gpt-4o").Budget("")
	assert.Equal(t, 128000, b.ContextWindow)
}

func TestConfigWithVar(t *testing.T) {
	base := DefaultConfig().WithVar("a", 1)
	derived := base.WithVar("b", 2)

	assert.Equal(t, map[string]any{"a": 1}, base.Vars)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, derived.Vars)
}
