// Package config loads extract_schedule settings from flags, environment
// variables and an optional YAML file.
//
// Precedence follows viper: flags set on the command line, then
// EXTRACT_SCHEDULE_* variables, then the config file, then defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pyhub-apps/pdfschedule/pkg/exporter"
	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
)

const (
	// EnvPrefix prefixes every environment variable
	EnvPrefix = "EXTRACT_SCHEDULE"

	// Name is the config file base name and the directory name under ~/.config
	Name = "extract-schedule"
)

// Keys
const (
	KeyFormat                = "format"
	KeySummary               = "summary"
	KeyStrategy              = "strategy"
	KeyLogLevel              = "log_level"
	KeyTimezone              = "timezone"
	KeyEventDuration         = "event_duration"
	KeySnapTolerance         = "snap_tolerance"
	KeyJoinTolerance         = "join_tolerance"
	KeyTextTolerance         = "text_tolerance"
	KeyIntersectionTolerance = "intersection_tolerance"
)

// Config is the validated set of settings
type Config struct {
	Format                exporter.Format
	Summary               bool
	Strategy              pdf.Strategy
	LogLevel              slog.Level
	Location              *time.Location
	EventDuration         time.Duration
	SnapTolerance         float64
	JoinTolerance         float64
	TextTolerance         float64
	IntersectionTolerance float64
}

// New returns a viper instance carrying the defaults and the environment binding
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyFormat, string(exporter.FormatJSON))
	v.SetDefault(KeySummary, false)
	v.SetDefault(KeyStrategy, string(pdf.StrategyLines))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTimezone, "")
	v.SetDefault(KeyEventDuration, exporter.DefaultEventDuration)
	v.SetDefault(KeySnapTolerance, 3.0)
	v.SetDefault(KeyJoinTolerance, 3.0)
	v.SetDefault(KeyTextTolerance, 3.0)
	v.SetDefault(KeyIntersectionTolerance, 3.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds command line flags to their keys. Flag names use dashes
// where keys use underscores; flags missing from the set are ignored.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		KeyFormat, KeySummary, KeyStrategy, KeyLogLevel, KeyTimezone, KeyEventDuration,
		KeySnapTolerance, KeyJoinTolerance, KeyTextTolerance, KeyIntersectionTolerance,
	} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// ReadFile reads the config file. An explicit file must exist; otherwise
// extract-schedule.yaml is looked up in the working directory and in
// ~/.config/extract-schedule/, and its absence is not an error. It returns
// the path of the file used, if any.
func ReadFile(v *viper.Viper, file string) (string, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load reads and validates every setting
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	var err error

	if cfg.Format, err = exporter.ParseFormat(strings.ToLower(v.GetString(KeyFormat))); err != nil {
		return Config{}, err
	}
	if cfg.Strategy, err = pdf.ParseStrategy(strings.ToLower(v.GetString(KeyStrategy))); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", v.GetString(KeyLogLevel))
	}
	if cfg.Location, err = loadLocation(v.GetString(KeyTimezone)); err != nil {
		return Config{}, err
	}

	cfg.Summary = v.GetBool(KeySummary)
	cfg.EventDuration = v.GetDuration(KeyEventDuration)
	if cfg.EventDuration <= 0 {
		return Config{}, fmt.Errorf("event duration must be positive, got %q", v.GetString(KeyEventDuration))
	}

	tolerances := map[string]*float64{
		KeySnapTolerance:         &cfg.SnapTolerance,
		KeyJoinTolerance:         &cfg.JoinTolerance,
		KeyTextTolerance:         &cfg.TextTolerance,
		KeyIntersectionTolerance: &cfg.IntersectionTolerance,
	}
	for key, dst := range tolerances {
		*dst = v.GetFloat64(key)
		if *dst < 0 {
			return Config{}, fmt.Errorf("%s must not be negative, got %v", key, *dst)
		}
	}

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// TableOptions returns the table detection settings
func (c Config) TableOptions() []pdf.TableExtractionOption {
	return []pdf.TableExtractionOption{
		pdf.WithStrategy(c.Strategy),
		pdf.WithSnapTolerance(c.SnapTolerance),
		pdf.WithJoinTolerance(c.JoinTolerance),
		pdf.WithTextTolerance(c.TextTolerance),
		pdf.WithIntersectionTolerance(c.IntersectionTolerance),
	}
}

// ExportOptions returns the output settings
func (c Config) ExportOptions() exporter.Options {
	return exporter.Options{
		Summary: c.Summary,
		ICS: exporter.ICSOptions{
			Location:      c.Location,
			EventDuration: c.EventDuration,
		},
	}
}
