package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/promptkit/compose"
)

// session is the file format of `promptctl render`: a compose.Request plus
// the model it targets.
type session struct {
	Model string `json:"model,omitempty"`
	compose.Request
}

// loadConfig reads the config file if one was given, then applies the
// environment.
func (a *app) loadConfig() (compose.Config, error) {
	cfg := compose.DefaultConfig()
	if a.config != "" {
		data, err := os.ReadFile(a.config)
		if err != nil {
			return compose.Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = compose.ParseConfig(data, compose.FormatFromPath(a.config)); err != nil {
			return compose.Config{}, fmt.Errorf("%s: %w", a.config, err)
		}
	}
	cfg.LoadFromEnv()
	return cfg, nil
}

// loadSession decodes a YAML or JSON session file. YAML is converted to
// JSON first so tool schemas and inputs given as mappings land in
// json.RawMessage fields.
func loadSession(path string) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}
