package model

import "strings"

// Identity names the model a prompt is rendered for.
type Identity struct {
	Family  string `json:"family" yaml:"family"`
	Version string `json:"version" yaml:"version"`
}

// ParseIdentity splits a model identifier at its first dash:
// "claude-sonnet-4-5" has family "claude" and version "sonnet-4-5".
func ParseIdentity(model string) Identity {
	model = strings.TrimSpace(model)
	family, version, _ := strings.Cut(model, "-")
	return Identity{Family: family, Version: version}
}

// Model returns the full identifier.
func (id Identity) Model() string {
	if id.Version == "" {
		return id.Family
	}
	return id.Family + "-" + id.Version
}

// String returns the full identifier.
func (id Identity) String() string {
	return id.Model()
}

// Alias returns the normalized family alias of the full identifier.
func (id Identity) Alias() ModelName {
	return NormalizeModelName(id.Model())
}

// Tier returns the capability tier of the model.
func (id Identity) Tier() Tier {
	return TierForModel(id.Alias())
}
