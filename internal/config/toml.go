// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields stay
// nil when a key is absent so flags and defaults can fill them in.
type FileConfig struct {
	Data         DataConfig         `toml:"data"`
	View         ViewConfig         `toml:"view"`
	Deactivation DeactivationConfig `toml:"deactivation"`
	Log          LogConfig          `toml:"log"`
}

// DataConfig locates the data set and the export directory.
type DataConfig struct {
	Source    *string `toml:"source"`
	Delimiter *string `toml:"delimiter"`
	ExportDir *string `toml:"export-dir"`
}

// ViewConfig maps the initial view parameters.
type ViewConfig struct {
	Dept    *string `toml:"dept"`
	Award   *string `toml:"award"`
	Query   *string `toml:"query"`
	Top     *string `toml:"top"`
	Sort    *string `toml:"sort"`
	Order   *string `toml:"order"`
	Flagged *bool   `toml:"flagged"`
	From    *string `toml:"from"`
	To      *string `toml:"to"`
}

// DeactivationConfig overrides the deactivation thresholds.
type DeactivationConfig struct {
	Window   *int     `toml:"window"`
	MinTotal *int     `toml:"min-total"`
	MinAvg   *float64 `toml:"min-avg"`
	MinZeros *int     `toml:"min-zeros"`
	MinPeak  *int     `toml:"min-peak"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ParseDelimiter maps a config or flag value to a field delimiter. Empty
// means sniff from the data.
func ParseDelimiter(value string) (rune, error) {
	switch value {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("invalid delimiter %q (use comma, semicolon, tab, or pipe)", value)
}
