// Package config holds the emulator settings, read through viper from the
// config file, CHYP8_ environment variables and command line flags.
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"golang.org/x/image/colornames"
)

const (
	// Name is the config file name searched in the home directory, without extension.
	Name      = ".chyp8"
	EnvPrefix = "CHYP8"
)

// Frontend names.
const (
	FrontendWindow   = "window"
	FrontendTerminal = "terminal"
	FrontendHeadless = "headless"
)

// Config keys.
const (
	KeyClock     = "clock"
	KeyScale     = "scale"
	KeyFrontend  = "frontend"
	KeyOnColor   = "on_color"
	KeyOffColor  = "off_color"
	KeySound     = "sound"
	KeySoundFile = "sound_file"
	KeyTone      = "tone"
	KeyTrace     = "trace"
	KeyCycles    = "cycles"
)

const maxScale = 64

type Config struct {
	Clock     int    `mapstructure:"clock"` // cycles per second
	Scale     int    `mapstructure:"scale"`
	Frontend  string `mapstructure:"frontend"`
	OnColor   string `mapstructure:"on_color"`
	OffColor  string `mapstructure:"off_color"`
	Sound     bool   `mapstructure:"sound"`
	SoundFile string `mapstructure:"sound_file"`
	Tone      int    `mapstructure:"tone"`
	Trace     bool   `mapstructure:"trace"`
	Cycles    int    `mapstructure:"cycles"` // 0 runs until quit
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyClock, 60)
	v.SetDefault(KeyScale, 10)
	v.SetDefault(KeyFrontend, FrontendWindow)
	v.SetDefault(KeyOnColor, "white")
	v.SetDefault(KeyOffColor, "black")
	v.SetDefault(KeySound, true)
	v.SetDefault(KeySoundFile, "")
	v.SetDefault(KeyTone, 440)
	v.SetDefault(KeyTrace, false)
	v.SetDefault(KeyCycles, 0)
}

// Init points v at the config file and environment. An empty cfgFile
// searches $HOME/.chyp8.* instead.
func Init(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(Name)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv() // read in environment variables that match
	SetDefaults(v)
	return nil
}

// ReadFile reads the config file if there is one. A missing file in the
// home directory is not an error, a missing explicit file is.
func ReadFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		return false, fmt.Errorf("reading config file: %w", err)
	}
	return true, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every setting, naming the offending key on failure.
func (c Config) Validate() error {
	if c.Clock <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyClock, c.Clock)
	}
	if c.Scale < 1 || c.Scale > maxScale {
		return fmt.Errorf("%s must be between 1 and %d, got %d", KeyScale, maxScale, c.Scale)
	}
	switch c.Frontend {
	case FrontendWindow, FrontendTerminal, FrontendHeadless:
	default:
		return fmt.Errorf("%s %q unknown, use %s, %s or %s",
			KeyFrontend, c.Frontend, FrontendWindow, FrontendTerminal, FrontendHeadless)
	}
	if _, ok := colornames.Map[c.OnColor]; !ok {
		return fmt.Errorf("%s %q is not a known color name", KeyOnColor, c.OnColor)
	}
	if _, ok := colornames.Map[c.OffColor]; !ok {
		return fmt.Errorf("%s %q is not a known color name", KeyOffColor, c.OffColor)
	}
	if c.Tone <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyTone, c.Tone)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyCycles, c.Cycles)
	}
	return nil
}

// CycleInterval is the time between two interpreter cycles.
func (c Config) CycleInterval() time.Duration {
	return time.Second / time.Duration(c.Clock)
}
