package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the host-owned settings container. Tweets is the primary
// collection, newest first, and is rewritten in place by the store.
type Settings struct {
	Tweets []*Post `json:"tweets"`

	// Reply generation settings, opaque to the store
	APIKey string `json:"apiKey,omitempty"`
	Model  string `json:"model,omitempty"`
}

// ReadSettingsFile loads a JSON settings export
func ReadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	for i, p := range s.Tweets {
		if p == nil {
			return nil, fmt.Errorf("settings file %s: tweets[%d] is null", path, i)
		}
	}
	return &s, nil
}

// WriteSettingsFile writes s as indented JSON, replacing path atomically
func WriteSettingsFile(path string, s *Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
