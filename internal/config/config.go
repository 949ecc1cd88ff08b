package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/leakguard/leakguard/internal/engine"
	"github.com/leakguard/leakguard/internal/entropy"
	"github.com/leakguard/leakguard/internal/ignore"
	"github.com/leakguard/leakguard/internal/logging"
	"github.com/leakguard/leakguard/internal/redact"
)

// DefaultMaxBytes skips files over 1 MiB unless configured otherwise.
const DefaultMaxBytes = 1 << 20

// ErrNotFound is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNotFound = errors.New("config not found")

// FileConfig is the on-disk YAML configuration shape for leakguard. Nil
// fields are unset and fall through to the next layer.
type FileConfig struct {
	Patterns        *PatternsConfig  `yaml:"patterns"`
	Entropy         *EntropyConfig   `yaml:"entropy"`
	Ignore          *ignore.Rules    `yaml:"ignore"`
	Include         *string          `yaml:"include"`
	Exclude         *string          `yaml:"exclude"`
	DefaultExcludes *bool            `yaml:"default_excludes"`
	Allowlist       []string         `yaml:"allowlist"`
	MaxConcurrency  *int             `yaml:"max_concurrency"`
	MaxBytes        *int64           `yaml:"max_bytes"`
	MinConfidence   *float64         `yaml:"min_confidence"`
	NoColor         *bool            `yaml:"no_color"`
	Redaction       *RedactionConfig `yaml:"redaction"`
	Audit           *AuditConfig     `yaml:"audit"`
	Log             *LogConfig       `yaml:"log"`
}

type PatternsConfig struct {
	// Custom are extra regular expressions appended to the built-in table.
	Custom []string `yaml:"custom"`
}

type EntropyConfig struct {
	Enabled          *bool    `yaml:"enabled"`
	Threshold        *float64 `yaml:"threshold"`
	MinLength        *int     `yaml:"min_length"`
	MaxLength        *int     `yaml:"max_length"`
	MinAlnumRatio    *float64 `yaml:"min_alnum_ratio"`
	RequireDigit     *bool    `yaml:"require_digit"`
	RequireMixedCase *bool    `yaml:"require_mixed_case"`
}

type RedactionConfig struct {
	Mask    *string `yaml:"mask"`
	Backups *bool   `yaml:"backups"`
}

type AuditConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Path    *string `yaml:"path"`
}

type LogConfig struct {
	Level      *string `yaml:"level"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
}

// LoadFile reads a YAML config file from the provided path. Unknown keys are
// rejected so typos do not silently disable a setting.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LocalNames are the repo-local config files, in lookup order.
var LocalNames = []string{".leakguard.yml", ".leakguard.yaml", "leakguard.yml", "leakguard.yaml"}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("no local config: %w", ErrNotFound)
}

// GlobalPath returns the global config location under XDG_CONFIG_HOME or
// ~/.config.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", fmt.Errorf("no config dir: %w", ErrNotFound)
	}
	return filepath.Join(base, "leakguard", "config.yml"), nil
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("no global config: %w", ErrNotFound)
}

// Load reads the global and repo-local files and merges them with the local
// file taking precedence. Missing files are not an error.
func Load(repoRoot string) (FileConfig, error) {
	global, err := LoadGlobal()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	local, err := LoadLocal(repoRoot)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	return Merge(global, local), nil
}

// Merge layers configs from lowest to highest precedence. Scalars from a
// later layer replace earlier ones; list settings (custom patterns, ignore
// rules, allowlist) accumulate.
func Merge(layers ...FileConfig) FileConfig {
	var out FileConfig
	for _, l := range layers {
		if l.Patterns != nil {
			if out.Patterns == nil {
				out.Patterns = &PatternsConfig{}
			}
			out.Patterns.Custom = append(out.Patterns.Custom, l.Patterns.Custom...)
		}
		if l.Entropy != nil {
			if out.Entropy == nil {
				out.Entropy = &EntropyConfig{}
			}
			e := out.Entropy
			setIf(&e.Enabled, l.Entropy.Enabled)
			setIf(&e.Threshold, l.Entropy.Threshold)
			setIf(&e.MinLength, l.Entropy.MinLength)
			setIf(&e.MaxLength, l.Entropy.MaxLength)
			setIf(&e.MinAlnumRatio, l.Entropy.MinAlnumRatio)
			setIf(&e.RequireDigit, l.Entropy.RequireDigit)
			setIf(&e.RequireMixedCase, l.Entropy.RequireMixedCase)
		}
		if l.Ignore != nil {
			var cur ignore.Rules
			if out.Ignore != nil {
				cur = *out.Ignore
			}
			merged := cur.Merge(*l.Ignore)
			out.Ignore = &merged
		}
		setIf(&out.Include, l.Include)
		setIf(&out.Exclude, l.Exclude)
		setIf(&out.DefaultExcludes, l.DefaultExcludes)
		out.Allowlist = append(out.Allowlist, l.Allowlist...)
		setIf(&out.MaxConcurrency, l.MaxConcurrency)
		setIf(&out.MaxBytes, l.MaxBytes)
		setIf(&out.MinConfidence, l.MinConfidence)
		setIf(&out.NoColor, l.NoColor)
		if l.Redaction != nil {
			if out.Redaction == nil {
				out.Redaction = &RedactionConfig{}
			}
			setIf(&out.Redaction.Mask, l.Redaction.Mask)
			setIf(&out.Redaction.Backups, l.Redaction.Backups)
		}
		if l.Audit != nil {
			if out.Audit == nil {
				out.Audit = &AuditConfig{}
			}
			setIf(&out.Audit.Enabled, l.Audit.Enabled)
			setIf(&out.Audit.Path, l.Audit.Path)
		}
		if l.Log != nil {
			if out.Log == nil {
				out.Log = &LogConfig{}
			}
			setIf(&out.Log.Level, l.Log.Level)
			setIf(&out.Log.Format, l.Log.Format)
			setIf(&out.Log.File, l.Log.File)
			setIf(&out.Log.MaxSizeMB, l.Log.MaxSizeMB)
			setIf(&out.Log.MaxBackups, l.Log.MaxBackups)
		}
	}
	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func valueOr[T any](p *T, d T) T {
	if p == nil {
		return d
	}
	return *p
}

// Settings is a fully resolved configuration with defaults applied.
type Settings struct {
	CustomPatterns  []string
	Entropy         engine.EntropyConfig
	Ignore          ignore.Rules
	Include         string
	Exclude         string
	DefaultExcludes bool
	Allowlist       []string
	MaxConcurrency  int     `validate:"gte=1,lte=1024"`
	MaxBytes        int64   `validate:"gte=0"`
	MinConfidence   float64 `validate:"gte=0,lte=1"`
	NoColor         bool
	Mask            string `validate:"required"`
	Backups         bool
	AuditEnabled    bool
	AuditPath       string
	Log             logging.Options
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Resolve applies defaults to fc and validates the result.
func Resolve(fc FileConfig) (Settings, error) {
	s := Settings{
		DefaultExcludes: valueOr(fc.DefaultExcludes, true),
		Include:         valueOr(fc.Include, ""),
		Exclude:         valueOr(fc.Exclude, ""),
		Allowlist:       fc.Allowlist,
		MaxConcurrency:  valueOr(fc.MaxConcurrency, engine.DefaultMaxConcurrency),
		MaxBytes:        valueOr(fc.MaxBytes, int64(DefaultMaxBytes)),
		MinConfidence:   valueOr(fc.MinConfidence, 0),
		NoColor:         valueOr(fc.NoColor, false),
		Mask:            redact.DefaultMask,
		Backups:         true,
		AuditEnabled:    true,
	}
	if fc.Patterns != nil {
		s.CustomPatterns = fc.Patterns.Custom
	}
	if fc.Ignore != nil {
		s.Ignore = *fc.Ignore
	}

	opts := entropy.DefaultOptions()
	if e := fc.Entropy; e != nil {
		s.Entropy.Disabled = !valueOr(e.Enabled, true)
		opts.Threshold = valueOr(e.Threshold, opts.Threshold)
		opts.MinLength = valueOr(e.MinLength, opts.MinLength)
		opts.MaxLength = valueOr(e.MaxLength, opts.MaxLength)
		opts.Charsets.MinAlnumRatio = valueOr(e.MinAlnumRatio, opts.Charsets.MinAlnumRatio)
		opts.Charsets.RequireDigit = valueOr(e.RequireDigit, opts.Charsets.RequireDigit)
		opts.Charsets.RequireMixedCase = valueOr(e.RequireMixedCase, opts.Charsets.RequireMixedCase)
	}
	s.Entropy.Options = opts

	if r := fc.Redaction; r != nil {
		s.Mask = valueOr(r.Mask, s.Mask)
		s.Backups = valueOr(r.Backups, s.Backups)
	}
	if a := fc.Audit; a != nil {
		s.AuditEnabled = valueOr(a.Enabled, s.AuditEnabled)
		s.AuditPath = valueOr(a.Path, "")
	}
	if l := fc.Log; l != nil {
		s.Log = logging.Options{
			Level:      valueOr(l.Level, ""),
			Format:     valueOr(l.Format, ""),
			File:       valueOr(l.File, ""),
			MaxSizeMB:  valueOr(l.MaxSizeMB, 0),
			MaxBackups: valueOr(l.MaxBackups, 0),
		}
	}
	s.Log.NoColor = s.NoColor

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every resolved value, including the entropy tuning when
// the entropy engine is enabled.
func (s Settings) Validate() error {
	if err := validate.StructExcept(s, "Entropy", "Log"); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !s.Entropy.Disabled {
		if err := validate.Struct(s.Entropy.Options); err != nil {
			return fmt.Errorf("invalid entropy config: %w", err)
		}
	}
	if err := s.Log.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EngineConfig maps the settings onto a scanner configuration rooted at
// root. Logger and Notifier are left for the caller.
func (s Settings) EngineConfig(root string) engine.Config {
	return engine.Config{
		Root:            root,
		CustomPatterns:  s.CustomPatterns,
		Entropy:         s.Entropy,
		Ignore:          s.Ignore,
		DefaultExcludes: s.DefaultExcludes,
		Allowlist:       s.Allowlist,
		MaxConcurrency:  s.MaxConcurrency,
		MaxBytes:        s.MaxBytes,
		MinConfidence:   s.MinConfidence,
	}
}

// WalkOptions maps the file selection settings for a full-tree walk.
func (s Settings) WalkOptions() engine.WalkOptions {
	return engine.WalkOptions{
		Rules:           s.Ignore,
		DefaultExcludes: s.DefaultExcludes,
		IncludeGlobs:    s.Include,
		ExcludeGlobs:    s.Exclude,
	}
}

// RedactOptions maps the redaction section.
func (s Settings) RedactOptions(dryRun bool) redact.Options {
	return redact.Options{CreateBackups: s.Backups, Mask: s.Mask, DryRun: dryRun}
}
