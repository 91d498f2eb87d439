// Package termimport loads seed terms from a JSON file into the work
// queue. It backs the offline bulk path; the HTTP admin endpoint covers
// small ad-hoc batches.
package termimport

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds term import settings.
type Config struct {
	InputPath        string   `yaml:"input_path"        env:"TERM_IMPORT_INPUT_PATH"       env-default:"./seed-terms.json"`
	DefaultPriority  int      `yaml:"default_priority"  env:"TERM_IMPORT_DEFAULT_PRIORITY" env-default:"5"`
	DefaultLanguages []string `yaml:"default_languages" env:"TERM_IMPORT_DEFAULT_LANGS"    env-default:"en"`
	DryRun           bool     `yaml:"dry_run"           env:"TERM_IMPORT_DRY_RUN"`
}

// LoadConfig reads config from a YAML file or environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("term-import config: %w", err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("term-import config: file %s not found", path)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("term-import config: read env: %w", err)
	}
	return &cfg, nil
}
