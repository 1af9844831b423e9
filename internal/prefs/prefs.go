// Package prefs persists presentation preferences between runs. Wallet
// sessions are never stored here.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const uiFile = "ui.json"

// UI holds view toggles.
type UI struct {
	ShowHistory bool `json:"show_history"`
}

// Dir overrides the directory used by Load and Save. Empty means the user
// config dir.
var Dir string

func uiPath() (string, error) {
	dir := Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "ethdapp")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, uiFile), nil
}

func Save(p UI) error {
	path, err := uiPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load returns the saved preferences, or the zero value when none exist.
func Load() (UI, error) {
	path, err := uiPath()
	if err != nil {
		return UI{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UI{}, nil
		}
		return UI{}, err
	}
	var p UI
	if err := json.Unmarshal(data, &p); err != nil {
		return UI{}, err
	}
	return p, nil
}
