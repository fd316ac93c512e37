package config

import (
	"log/slog"
	"os"
)

// ProjectConfigFile is picked up from the working directory when no explicit
// path is given.
const ProjectConfigFile = "mirrorbook.yaml"

// Loader resolves which configuration file drives a run
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load returns, in order of precedence, the config at path, the project
// config in the working directory, or the defaults. The result is validated.
func (l *Loader) Load(path string) (*Config, error) {
	var (
		config *Config
		err    error
	)

	switch {
	case path != "":
		config, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", path))
	default:
		if _, statErr := os.Stat(ProjectConfigFile); statErr == nil {
			config, err = LoadFromFile(ProjectConfigFile)
			if err != nil {
				return nil, err
			}
			l.logger.Debug("Loaded project config", slog.String("path", ProjectConfigFile))
		} else {
			config = DefaultConfig()
			l.logger.Debug("No project config found, using defaults")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
