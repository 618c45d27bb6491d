// Package config loads run settings for the mice commands from JSON, YAML or
// TOML files. Unknown keys are rejected.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/wdm0006/mice/pkg/impute"
	"github.com/wdm0006/mice/pkg/io/tableio"
	"github.com/wdm0006/mice/pkg/mice"
	"github.com/wdm0006/mice/pkg/model"
	"github.com/wdm0006/mice/pkg/prepare"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Input     IO             `json:"input" yaml:"input" toml:"input"`
	Output    IO             `json:"output" yaml:"output" toml:"output"`
	Prepare   []prepare.Rule `json:"prepare" yaml:"prepare" toml:"prepare"`
	Imputer   Imputer        `json:"imputer" yaml:"imputer" toml:"imputer"`
	Benchmark Benchmark      `json:"benchmark" yaml:"benchmark" toml:"benchmark"`
	Log       Log            `json:"log" yaml:"log" toml:"log"`
}

// IO locates a table. Format is detected from Path when empty.
type IO struct {
	Path     string   `json:"path" yaml:"path" toml:"path"`
	Format   string   `json:"format" yaml:"format" toml:"format"`
	Missing  []string `json:"missing" yaml:"missing" toml:"missing"`
	Sheet    string   `json:"sheet" yaml:"sheet" toml:"sheet"`
	NoHeader bool     `json:"no_header" yaml:"no_header" toml:"no_header"`
}

type Imputer struct {
	Strategy       string         `json:"strategy" yaml:"strategy" toml:"strategy"`
	MaxIter        int            `json:"max_iter" yaml:"max_iter" toml:"max_iter"`
	Seed           int64          `json:"seed" yaml:"seed" toml:"seed"`
	Model          string         `json:"model" yaml:"model" toml:"model"`
	Alpha          float64        `json:"alpha" yaml:"alpha" toml:"alpha"`
	Neighbors      int            `json:"neighbors" yaml:"neighbors" toml:"neighbors"`
	Strict         bool           `json:"strict" yaml:"strict" toml:"strict"`
	Initial        string         `json:"initial" yaml:"initial" toml:"initial"`
	Constants      map[string]any `json:"constants" yaml:"constants" toml:"constants"`
	ClipToObserved bool           `json:"clip_to_observed" yaml:"clip_to_observed" toml:"clip_to_observed"`
}

// Benchmark configures the benchmark command: Original is the complete
// reference table, Input the same table with holes.
type Benchmark struct {
	Original    string   `json:"original" yaml:"original" toml:"original"`
	Strategies  []string `json:"strategies" yaml:"strategies" toml:"strategies"`
	DropColumns []string `json:"drop_columns" yaml:"drop_columns" toml:"drop_columns"`
	Baseline    bool     `json:"baseline" yaml:"baseline" toml:"baseline"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Default returns the settings used for keys a file leaves out.
func Default() Config {
	return Config{
		Imputer: Imputer{
			Strategy: mice.ColumnOnly.Name,
			MaxIter:  mice.DefaultMaxIter,
			Model:    model.FamilyLinear,
			Initial:  string(impute.StatMean),
		},
		Benchmark: Benchmark{Baseline: true},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default. The decoder is chosen by extension.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported config extension %q", ErrInvalid, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := mice.ParseStrategy(c.Imputer.Strategy); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.Benchmark.Strategies {
		if _, err := mice.ParseStrategy(s); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Imputer.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("max_iter must be >= 1, got %d", c.Imputer.MaxIter))
	}
	if c.Imputer.Alpha < 0 {
		errs = append(errs, fmt.Errorf("alpha must be >= 0, got %v", c.Imputer.Alpha))
	}
	if c.Imputer.Neighbors < 0 {
		errs = append(errs, fmt.Errorf("neighbors must be >= 0, got %d", c.Imputer.Neighbors))
	}
	switch c.Imputer.Model {
	case model.FamilyLinear, model.FamilyGolearn:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", model.ErrUnknownFamily, c.Imputer.Model))
	}
	switch impute.Statistic(c.Imputer.Initial) {
	case impute.StatMean, impute.StatMedian:
	default:
		errs = append(errs, fmt.Errorf("initial must be mean or median, got %q", c.Imputer.Initial))
	}
	for _, r := range c.Prepare {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("prepare: %w", err))
		}
	}
	for _, s := range []IO{c.Input, c.Output} {
		if s.Format != "" {
			if _, err := s.TableOptions().Resolve(s.Path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// TableOptions converts an IO section for tableio.
func (s IO) TableOptions() tableio.Options {
	return tableio.Options{
		Format:   tableio.Format(s.Format),
		Missing:  s.Missing,
		Sheet:    s.Sheet,
		NoHeader: s.NoHeader,
	}
}

// NewImputer builds the imputer described by c with the given strategy name;
// an empty name uses c.Strategy.
func (c Imputer) NewImputer(strategy string, log *slog.Logger) (*mice.Imputer, error) {
	if strategy == "" {
		strategy = c.Strategy
	}
	s, err := mice.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	f, err := model.NewFactory(c.Model, model.Options{Alpha: c.Alpha, Neighbors: c.Neighbors, Strict: c.Strict})
	if err != nil {
		return nil, err
	}
	return &mice.Imputer{
		Strategy:       s,
		MaxIter:        c.MaxIter,
		Seed:           c.Seed,
		Factory:        f,
		Initial:        &impute.Initial{Numeric: impute.Statistic(c.Initial), Constants: c.Constants},
		ClipToObserved: c.ClipToObserved,
		Logger:         log,
	}, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
