// Package settings switches Claude Code between the gateway and the direct API
// by editing env.ANTHROPIC_BASE_URL in its settings file.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BaseURLKey is the environment entry Claude Code reads for its API endpoint.
const BaseURLKey = "ANTHROPIC_BASE_URL"

// Mode selects what Toggle does.
type Mode int

const (
	Flip Mode = iota
	On
	Off
)

// State describes the gateway setting after a toggle.
type State struct {
	Enabled bool
	URL     string
	Backup  string
}

// Toggle writes a backup of the settings file next to it, then sets or removes
// env.ANTHROPIC_BASE_URL according to mode. Other settings are preserved.
func Toggle(path, gatewayURL string, mode Mode) (State, error) {
	info, err := os.Stat(path)
	if err != nil {
		return State{}, fmt.Errorf("read settings: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read settings: %w", err)
	}

	settings := make(map[string]any)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return State{}, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	// The backup carries the settings file's permissions, also when it already exists.
	backup := backupPath(path)
	perm := info.Mode().Perm()
	if err := os.WriteFile(backup, raw, perm); err != nil {
		return State{}, fmt.Errorf("write backup: %w", err)
	}
	if err := os.Chmod(backup, perm); err != nil {
		return State{}, fmt.Errorf("write backup: %w", err)
	}

	env, ok := settings["env"].(map[string]any)
	if !ok {
		if _, exists := settings["env"]; exists {
			return State{}, fmt.Errorf("settings %s: env is not an object", path)
		}
		env = make(map[string]any)
	}

	_, present := env[BaseURLKey]
	enable := !present
	switch mode {
	case On:
		enable = true
	case Off:
		enable = false
	}

	state := State{Enabled: enable, Backup: backup}
	if enable {
		env[BaseURLKey] = gatewayURL
		state.URL = gatewayURL
	} else {
		delete(env, BaseURLKey)
	}
	settings["env"] = env

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return State{}, fmt.Errorf("encode settings: %w", err)
	}
	out = append(out, '\n')

	if err := os.WriteFile(path, out, perm); err != nil {
		return State{}, fmt.Errorf("write settings: %w", err)
	}
	return state, nil
}

func backupPath(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".json.bak"
	}
	return path + ".bak"
}
