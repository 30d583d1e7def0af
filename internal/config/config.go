// Package config loads the hydrate runtime configuration.
//
// The configuration file is YAML. It is validated against an embedded CUE
// schema that also supplies defaults, then decoded into Config. A missing
// file yields the defaults.
//
// Example hydrate.yaml:
//
//	dataDir: /home/me/.local/share/hydrate
//	backend: sqlite
//	amountMl: 250
//	syncInterval: 10m
//	reminderCheckInterval: 30s
//	requestTimeout: 5s
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "HYDRATE_CONFIG"

// EnvDataDir names the environment variable overriding dataDir.
const EnvDataDir = "HYDRATE_DATA_DIR"

// FileName is the config file looked up in the default config directory.
const FileName = "hydrate.yaml"

// Config is the validated runtime configuration.
type Config struct {
	DataDir               string
	Backend               string
	AmountMl              int
	SyncInterval          time.Duration
	ReminderCheckInterval time.Duration
	RequestTimeout        time.Duration
	// AppKey overrides the collector app key when non-empty.
	AppKey string
}

// fileValues is the decoded CUE value. Durations are still strings.
type fileValues struct {
	DataDir               string `json:"dataDir"`
	Backend               string `json:"backend"`
	AmountMl              int    `json:"amountMl"`
	SyncInterval          string `json:"syncInterval"`
	ReminderCheckInterval string `json:"reminderCheckInterval"`
	RequestTimeout        string `json:"requestTimeout"`
	AppKey                string `json:"appKey"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg, err := Parse(nil)
	if err != nil {
		// The embedded schema's defaults always validate.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, "hydrate")
}

// ResolvePath picks the config file: the explicit path, then $HYDRATE_CONFIG,
// then hydrate.yaml in the default data directory.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), FileName)
}

// Load reads and validates the file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML data against the schema and returns the Config.
// Empty data yields the defaults.
func Parse(data []byte) (Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", formatCUEError(err))
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate: %w", formatCUEError(err))
	}

	var fv fileValues
	if err := v.Decode(&fv); err != nil {
		return Config{}, fmt.Errorf("decode: %w", formatCUEError(err))
	}
	return fv.toConfig()
}

func (fv fileValues) toConfig() (Config, error) {
	cfg := Config{
		DataDir:  fv.DataDir,
		Backend:  fv.Backend,
		AmountMl: fv.AmountMl,
		AppKey:   fv.AppKey,
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}

	var err error
	if cfg.SyncInterval, err = positiveDuration("syncInterval", fv.SyncInterval); err != nil {
		return Config{}, err
	}
	if cfg.ReminderCheckInterval, err = positiveDuration("reminderCheckInterval", fv.ReminderCheckInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = positiveDuration("requestTimeout", fv.RequestTimeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func positiveDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", field, s)
	}
	return d, nil
}

// formatCUEError returns the first CUE error with its position, if any.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := cueerrors.Positions(first); len(pos) > 0 && pos[0].IsValid() {
		return fmt.Errorf("%s: %s", pos[0].String(), first.Error())
	}
	return first
}
