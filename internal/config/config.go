// Package config loads the vero.yaml project file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the working
// directory.
const FileName = "vero.yaml"

// Config is the project configuration. Command-line flags override
// whatever is set here.
type Config struct {
	// Output is the directory generated units are written to.
	Output string `yaml:"output"`
	// Env supplies defaults for {{NAME}} placeholders in source.
	Env map[string]string `yaml:"env,omitempty"`
	// Debug configures the step-debugging bridge.
	Debug Debug `yaml:"debug,omitempty"`
}

// Debug is the bridge section of the configuration.
type Debug struct {
	Listen       string `yaml:"listen"`
	CommandFile  string `yaml:"commandFile"`
	PollInterval string `yaml:"pollInterval"`
}

// Default returns the configuration used when no vero.yaml exists.
func Default() Config {
	return Config{
		Output: "generated",
		Debug: Debug{
			Listen:       "127.0.0.1:9229",
			CommandFile:  ".vero/commands.json",
			PollInterval: "50ms",
		},
	}
}

// Load reads path, layering the file over the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Write saves the configuration to path.
func Write(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
