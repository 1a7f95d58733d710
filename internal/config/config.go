// Package config loads undolog configuration files.
//
// Files are CUE (plain JSON is valid CUE) or YAML, unified with the embedded
// #Config schema. The schema supplies every default and rejects unknown
// fields, so a missing file and an empty file yield the same Config.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Database      string     `json:"database"`
	BusyTimeoutMS int        `json:"busy_timeout_ms"`
	LogLevel      string     `json:"log_level"`
	Format        string     `json:"format"`
	Seed          SeedConfig `json:"seed"`
}

// SeedConfig holds defaults for the seed command.
type SeedConfig struct {
	Models  int    `json:"models"`
	Entries int    `json:"entries"`
	Table   string `json:"table"`
	OpType  string `json:"op_type"`
}

// BusyTimeout returns BusyTimeoutMS as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error is a configuration error with source position, when known.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Default returns the configuration with every field at its schema default.
func Default() (*Config, error) {
	return Load("")
}

// Load reads and validates the configuration at path. An empty path loads
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return decode(nil, "")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(data, path)
}

// Parse validates configuration source. filename selects the format by
// extension (.yaml/.yml for YAML, anything else for CUE) and is used in
// error positions.
func Parse(data []byte, filename string) (*Config, error) {
	return decode(data, filename)
}

func decode(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if data != nil {
		file, err := compileSource(ctx, data, filename)
		if err != nil {
			return nil, formatCUEError(filename, err)
		}
		v = v.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(filename, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(filename, err)
	}
	return &cfg, nil
}

func compileSource(ctx *cue.Context, data []byte, filename string) (cue.Value, error) {
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		f, err := yaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, err
		}
		v := ctx.BuildFile(f)
		return v, v.Err()
	default:
		v := ctx.CompileBytes(data, cue.Filename(filename))
		return v, v.Err()
	}
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}

	first := errs[0]
	cfgErr := &Error{Path: path, Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		// Prefer a position inside the user's file over one in the schema.
		if pos.Filename() == path || !cfgErr.Pos.IsValid() {
			cfgErr.Pos = pos
		}
	}
	return cfgErr
}
