// Package config reads the asset layer's settings from the environment. Values can be supplied by the
// process environment or by .env files; the process environment wins.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvAssetDir          = "OXY_ASSET_DIR"
	EnvTextureDir        = "OXY_TEXTURE_DIR"
	EnvModelDir          = "OXY_MODEL_DIR"
	EnvLoadWorkers       = "OXY_LOAD_WORKERS"
	EnvLoadQueue         = "OXY_LOAD_QUEUE"
	EnvSweepInterval     = "OXY_SWEEP_INTERVAL"
	EnvGenerateMipmaps   = "OXY_GENERATE_MIPMAPS"
	EnvAnisotropy        = "OXY_ANISOTROPY"
	EnvCalculateTangents = "OXY_CALCULATE_TANGENTS"
)

// ErrInvalidValue is returned when an environment variable cannot be parsed.
var ErrInvalidValue = errors.New("config: invalid value")

// Configuration holds the settings of an asset engine.
type Configuration struct {
	// AssetDirectory is the root every other relative directory is resolved against.
	AssetDirectory string

	// TextureDirectory is the base directory for texture identifiers.
	TextureDirectory string

	// ModelDirectory is the base directory for model identifiers.
	ModelDirectory string

	// LoadWorkers is the size of the background load pool.
	LoadWorkers int

	// LoadQueue is the number of load tasks that can be queued before submission blocks.
	LoadQueue int

	// SweepInterval is the period of the maintenance loop. Zero disables it.
	SweepInterval time.Duration

	// Options are the default load options.
	Options common.LoadOptions
}

// Default returns the configuration used when nothing is set.
//
// Returns:
//   - Configuration: the default configuration
func Default() Configuration {
	return Configuration{
		AssetDirectory: ".",
		LoadWorkers:    runtime.NumCPU(),
		LoadQueue:      256,
		SweepInterval:  5 * time.Second,
		Options:        common.DefaultLoadOptions(),
	}
}

// Load reads the configuration from the environment after loading the given .env files. Variables already
// present in the process environment are not overwritten by the files. Unset variables keep their Default
// values.
//
// Parameters:
//   - files: optional .env files to load first
//
// Returns:
//   - Configuration: the configuration
//   - error: error if a file cannot be read or a value cannot be parsed
func Load(files ...string) (Configuration, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, fmt.Errorf("config: failed to load env files: %w", err)
		}
	}
	envy.Reload()

	cfg := Default()
	cfg.AssetDirectory = envy.Get(EnvAssetDir, cfg.AssetDirectory)
	cfg.TextureDirectory = envy.Get(EnvTextureDir, cfg.TextureDirectory)
	cfg.ModelDirectory = envy.Get(EnvModelDir, cfg.ModelDirectory)

	var err error
	if cfg.LoadWorkers, err = getInt(EnvLoadWorkers, cfg.LoadWorkers); err != nil {
		return Configuration{}, err
	}
	if cfg.LoadQueue, err = getInt(EnvLoadQueue, cfg.LoadQueue); err != nil {
		return Configuration{}, err
	}
	if cfg.SweepInterval, err = getDuration(EnvSweepInterval, cfg.SweepInterval); err != nil {
		return Configuration{}, err
	}
	if cfg.Options.GenerateMipmaps, err = getBool(EnvGenerateMipmaps, cfg.Options.GenerateMipmaps); err != nil {
		return Configuration{}, err
	}
	if cfg.Options.AnisotropicFiltering, err = getBool(EnvAnisotropy, cfg.Options.AnisotropicFiltering); err != nil {
		return Configuration{}, err
	}
	if cfg.Options.CalculateTangents, err = getBool(EnvCalculateTangents, cfg.Options.CalculateTangents); err != nil {
		return Configuration{}, err
	}

	if cfg.LoadWorkers < 1 {
		return Configuration{}, fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidValue, EnvLoadWorkers, cfg.LoadWorkers)
	}
	if cfg.LoadQueue < 0 {
		return Configuration{}, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidValue, EnvLoadQueue, cfg.LoadQueue)
	}
	return cfg, nil
}

// TextureBaseDirectory returns the directory texture identifiers are resolved against.
//
// Returns:
//   - string: TextureDirectory joined onto AssetDirectory when relative
func (c Configuration) TextureBaseDirectory() string {
	return c.under(c.TextureDirectory)
}

// ModelBaseDirectory returns the directory model identifiers are resolved against.
//
// Returns:
//   - string: ModelDirectory joined onto AssetDirectory when relative
func (c Configuration) ModelBaseDirectory() string {
	return c.under(c.ModelDirectory)
}

func (c Configuration) under(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.AssetDirectory, dir)
}

func getInt(key string, fallback int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw)
	}
	return v, nil
}
