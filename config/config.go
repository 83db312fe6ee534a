// Package config holds player settings: built-in defaults, an optional TOML
// file, and validation. CLI flags are applied by the caller after Load.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/lixenwraith/bw-player/asset"
	"github.com/lixenwraith/bw-player/toml"
)

// ErrInvalid is wrapped by Validate
var ErrInvalid = errors.New("invalid configuration")

// Enumerated string settings
var (
	Modes        = []string{"auto", "full", "diff"}
	ErrorActions = []string{"stop", "skip"}
	ColorModes   = []string{"auto", "truecolor", "256"}
	Outputs      = []string{"ansi", "tcell"}
)

type Config struct {
	Player PlayerConfig `toml:"player"`
	Style  StyleConfig  `toml:"style"`
	Audio  AudioConfig  `toml:"audio"`
	Log    LogConfig    `toml:"log"`
}

type PlayerConfig struct {
	FPS     float64 `toml:"fps" comment:"frames per second, 0 uses the rate stored in the animation"`
	Mode    string  `toml:"mode" comment:"auto, full or diff"`
	OnError string  `toml:"on_error" comment:"stop or skip a frame that fails to decode"`
	Loop    bool    `toml:"loop"`
	Center  bool    `toml:"center"`
	Output  string  `toml:"output" comment:"ansi or tcell"`
}

type StyleConfig struct {
	Fg     string `toml:"fg" comment:"color of white pixels: #rrggbb, #rgb or a color name"`
	Bg     string `toml:"bg"`
	Color  string `toml:"color" comment:"auto, truecolor or 256"`
	Invert bool   `toml:"invert"`
}

type AudioConfig struct {
	File   string  `toml:"file" comment:"WAV soundtrack played alongside the animation"`
	Volume float64 `toml:"volume" comment:"linear gain, 0 to 1"`
	Muted  bool    `toml:"muted"`
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	Dir   string `toml:"dir"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Player: PlayerConfig{
			Mode:    "auto",
			OnError: "stop",
			Output:  "ansi",
		},
		Style: StyleConfig{
			Fg:    "#ffffff",
			Bg:    "#000000",
			Color: "auto",
		},
		Audio: AudioConfig{
			Volume: 1,
		},
		Log: LogConfig{
			Dir: "logs",
		},
	}
}

// Path returns the default config file location:
// $XDG_CONFIG_HOME/bw-player/config.toml, else ~/.config/bw-player/config.toml
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bw-player", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bw-player", "config.toml")
}

// Load reads path over the defaults. An empty path tries Path() and
// silently keeps the defaults when that file does not exist
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over cfg; unknown keys are errors
func Parse(data []byte, cfg *Config) error {
	return toml.UnmarshalStrict(data, cfg)
}

// Marshal renders cfg as a commented TOML document
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(&c)
}

// Validate checks enumerations and ranges
func (c Config) Validate() error {
	if c.Player.FPS != 0 && !asset.ValidFPS(c.Player.FPS) {
		return fmt.Errorf("%w: player.fps must be 0 or within [%g, %g], got %g", ErrInvalid, asset.MinFPS, asset.MaxFPS, c.Player.FPS)
	}
	checks := []struct {
		key   string
		value string
		set   []string
	}{
		{"player.mode", c.Player.Mode, Modes},
		{"player.on_error", c.Player.OnError, ErrorActions},
		{"player.output", c.Player.Output, Outputs},
		{"style.color", c.Style.Color, ColorModes},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.set, ch.value) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalid, ch.key, ch.set, ch.value)
		}
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: audio.volume must be within [0, 1], got %g", ErrInvalid, c.Audio.Volume)
	}
	if _, _, err := c.Style.Colors(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
