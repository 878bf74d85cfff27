package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProgramConfig declares one allow-listed program.
type ProgramConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the on-disk shape of programs.yaml.
type ConfigFile struct {
	Programs []ProgramConfig `yaml:"programs" json:"programs"`
}

// LoadPrograms reads an allow-list file (YAML or JSON, by extension)
// and returns the declared programs keyed by name. A missing file
// means no programs are configured, not an error.
func LoadPrograms(path string) (map[string]ProgramConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProgramConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read programs config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	programs := make(map[string]ProgramConfig)
	for _, p := range cfg.Programs {
		if p.Name == "" {
			continue
		}
		programs[p.Name] = p
	}
	return programs, nil
}
