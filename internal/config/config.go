// Package config loads editor settings from a yaml file. A missing or
// unreadable file yields the defaults: the editor must start without
// any setup.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HistorySize bounds the undo stack.
	HistorySize int `yaml:"history_size"`
	// HitTolerance is the hit-test radius in data units.
	HitTolerance float64 `yaml:"hit_tolerance"`
	// NudgeStep is the distance of one arrow-key nudge.
	NudgeStep float64 `yaml:"nudge_step"`
	// SaveDirectory is prepended to relative save paths.
	SaveDirectory string `yaml:"save_directory"`
	// CrossFrameSelect lets hit-testing match points on any frame, not
	// just the current one.
	CrossFrameSelect bool `yaml:"cross_frame_select"`
}

func Default() *Config {
	return &Config{
		HistorySize:  100,
		HitTolerance: 8.0,
		NudgeStep:    1.0,
	}
}

func path() (string, error) {
	if dir := os.Getenv("CURVEDITOR_HOME"); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".curveditor", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when the file
// is missing or malformed.
func Load() *Config {
	cfg := Default()
	p, err := path()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = Default().HistorySize
	}
	if cfg.HitTolerance <= 0 {
		cfg.HitTolerance = Default().HitTolerance
	}
	if cfg.NudgeStep <= 0 {
		cfg.NudgeStep = Default().NudgeStep
	}
	return cfg
}

// Save writes the config back out, creating the directory if needed.
func (c *Config) Save() error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

// SavePath resolves a save filename against the configured directory.
func (c *Config) SavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
