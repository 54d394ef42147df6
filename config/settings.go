package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the player-adjustable knobs. The simulation core assumes
// they were clamped here and never re-validates them.
type Settings struct {
	Sensitivity  float64 `mapstructure:"sensitivity"`
	Lives        int     `mapstructure:"lives"`
	Seed         int64   `mapstructure:"seed"` // 0 picks a time-based seed per game
	ShakeEnabled bool    `mapstructure:"shakeEnabled"`
}

// Settings bounds
const (
	MinSensitivity = 0.1
	MaxSensitivity = 3.0
	MaxLives       = 9
)

// DefaultSettings returns the settings a fresh install starts with
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:  1.0,
		Lives:        InitialLives,
		ShakeEnabled: true,
	}
}

// Clamp returns a copy with every value forced into its valid range
func (s Settings) Clamp() Settings {
	if s.Sensitivity < MinSensitivity {
		s.Sensitivity = MinSensitivity
	}
	if s.Sensitivity > MaxSensitivity {
		s.Sensitivity = MaxSensitivity
	}
	if s.Lives < 1 {
		s.Lives = 1
	}
	if s.Lives > MaxLives {
		s.Lives = MaxLives
	}
	return s
}

// File is the full on-disk configuration
type File struct {
	Server   ServerConfig `mapstructure:"server"`
	Settings Settings     `mapstructure:"settings"`
}

// Load reads configuration from an optional file and ROADRUSH_* environment
// variables on top of the defaults. An empty path skips the file.
func Load(path string) (*File, error) {
	v := viper.New()

	def := DefaultServerConfig()
	v.SetDefault("server.host", def.Host)
	v.SetDefault("server.port", def.Port)
	v.SetDefault("server.enableCORS", def.EnableCORS)
	v.SetDefault("server.logLevel", def.LogLevel)
	v.SetDefault("server.graylog", def.Graylog)
	v.SetDefault("server.dbDriver", def.DBDriver)
	v.SetDefault("server.dbDSN", def.DBDSN)

	ds := DefaultSettings()
	v.SetDefault("settings.sensitivity", ds.Sensitivity)
	v.SetDefault("settings.lives", ds.Lives)
	v.SetDefault("settings.seed", ds.Seed)
	v.SetDefault("settings.shakeEnabled", ds.ShakeEnabled)

	v.SetEnvPrefix("ROADRUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// an explicit path surfaces a missing file as an fs error
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	f.Settings = f.Settings.Clamp()

	return &f, nil
}
