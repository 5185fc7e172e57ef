// Package config reads the player settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// Limits accepted for the numeric settings
const (
	MinBuffer = 256
	MaxBuffer = 8192
)

// Config holds the player defaults. Command-line flags override it.
type Config struct {
	Rate      int    `toml:"rate"`
	Buffer    int    `toml:"buffer"`
	SoundCard string `toml:"soundcard"`
	Volume    int    `toml:"volume"`
	Loop      bool   `toml:"loop"`
	Output    string `toml:"output"`
	DCFilter  bool   `toml:"dc_filter"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Rate:      48000,
		Buffer:    1024,
		SoundCard: "auto",
		Volume:    st3.MaxMixVolume,
		Loop:      true,
		Output:    "oto",
	}
}

// Path returns the default location of the settings file.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "s3mplay", "config.toml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if _, ok := st3.ParseSoundCard(cfg.SoundCard); !ok {
		return Default(), fmt.Errorf("invalid soundcard %q in %s", cfg.SoundCard, path)
	}
	cfg.Clamp()
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}

// Clamp forces every numeric setting into its accepted range.
func (c *Config) Clamp() {
	c.Rate = clamp(c.Rate, st3.MinOutputRate, st3.MaxOutputRate)
	c.Buffer = clamp(c.Buffer, MinBuffer, MaxBuffer)
	c.Volume = clamp(c.Volume, 0, st3.MaxMixVolume)
}

// Card returns the configured sound card.
func (c *Config) Card() st3.SoundCard {
	card, _ := st3.ParseSoundCard(c.SoundCard)
	return card
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
