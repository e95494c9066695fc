package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"gopkg.in/yaml.v3"
)

// Settings is the YAML settings file of the CLI. Flags override every field.
type Settings struct {
	Endpoint      string `yaml:"endpoint"`
	Username      string `yaml:"username"`
	OutputDir     string `yaml:"output_dir"`
	HoroscopeType string `yaml:"horoscope_type"`
}

func defaultSettings() Settings {
	return Settings{
		Endpoint:      config.DefaultEndpoint,
		OutputDir:     config.DefaultOutputDir,
		HoroscopeType: config.DefaultHoroscopeType,
	}
}

// loadSettings reads path over the defaults. A missing file is only an error
// when the user named it explicitly.
func loadSettings(path string, explicit bool) (Settings, error) {
	settings := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return settings, nil
		}
		return settings, fmt.Errorf("%s %s: %w", config.ErrSettingsLoad, path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("%s: %w", config.ErrSettingsParse, err)
	}

	// Empty keys in the file keep their defaults.
	def := defaultSettings()
	if settings.Endpoint == "" {
		settings.Endpoint = def.Endpoint
	}
	if settings.OutputDir == "" {
		settings.OutputDir = def.OutputDir
	}
	if settings.HoroscopeType == "" {
		settings.HoroscopeType = def.HoroscopeType
	}
	if _, err := engine.ParseHoroscopeType(settings.HoroscopeType); err != nil {
		return settings, fmt.Errorf("%s: %w", config.ErrSettingsParse, err)
	}

	slog.Debug(config.MsgSettingsLoaded,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyPath, path)
	return settings, nil
}
