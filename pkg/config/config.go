// Package config loads the optional psdemiurge.toml tool configuration.
//
// The file lives in the target folder (or is named with --config) and sets
// run-wide defaults; command-line flags override it.
//
//	output_dir = "out"
//	manifest = "characters.rpy"
//	image_prefix = "img/characters"
//	bounds = "origin"
//	workers = 4
//	allow_duplicate_layers = false
//	compression = "best"
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/psdemiurge/pkg/composite"
	"github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/imageio"
)

// FileName is the config file looked up in the target folder.
const FileName = "psdemiurge.toml"

// DefaultImagePrefix is the manifest path prefix used by Ren'Py projects.
const DefaultImagePrefix = "img/characters"

// Config is the tool configuration.
type Config struct {
	OutputDir            string `toml:"output_dir"`
	Manifest             string `toml:"manifest"`
	ImagePrefix          string `toml:"image_prefix"`
	Bounds               string `toml:"bounds"`
	Workers              int    `toml:"workers"`
	AllowDuplicateLayers bool   `toml:"allow_duplicate_layers"`
	Compression          string `toml:"compression"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ImagePrefix: DefaultImagePrefix,
		Bounds:      composite.BoundsOrigin.String(),
		Workers:     1,
		Compression: imageio.CompressionDefault.String(),
	}
}

// Load decodes the file at path over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// LoadOptional loads path if it exists and returns the defaults otherwise.
func LoadOptional(path string) (Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	return cfg, err == nil, err
}

// Validate checks enumerated values and ranges.
func (c Config) Validate() error {
	if _, err := composite.ParseBounds(c.Bounds); err != nil {
		return err
	}
	if _, err := imageio.ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if c.Manifest != "" {
		if err := errors.ValidatePath(c.Manifest); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "manifest")
		}
	}
	return nil
}
