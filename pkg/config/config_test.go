package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfschedule/pkg/exporter"
	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, exporter.FormatJSON, cfg.Format)
	assert.False(t, cfg.Summary)
	assert.Equal(t, pdf.StrategyLines, cfg.Strategy)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, exporter.DefaultEventDuration, cfg.EventDuration)
	assert.Equal(t, 3.0, cfg.SnapTolerance)
	assert.Equal(t, 3.0, cfg.JoinTolerance)
	assert.Equal(t, 3.0, cfg.TextTolerance)
	assert.Equal(t, 3.0, cfg.IntersectionTolerance)
	assert.Len(t, cfg.TableOptions(), 5)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EXTRACT_SCHEDULE_FORMAT", "YAML")
	t.Setenv("EXTRACT_SCHEDULE_SUMMARY", "true")
	t.Setenv("EXTRACT_SCHEDULE_LOG_LEVEL", "debug")
	t.Setenv("EXTRACT_SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("EXTRACT_SCHEDULE_EVENT_DURATION", "1h")
	t.Setenv("EXTRACT_SCHEDULE_SNAP_TOLERANCE", "1.5")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, exporter.FormatYAML, cfg.Format)
	assert.True(t, cfg.Summary)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, time.Hour, cfg.EventDuration)
	assert.Equal(t, 1.5, cfg.SnapTolerance)

	opts := cfg.ExportOptions()
	assert.True(t, opts.Summary)
	assert.Equal(t, time.Hour, opts.ICS.EventDuration)
	assert.Equal(t, cfg.Location, opts.ICS.Location)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: ics\nstrategy: auto\njoin_tolerance: 2\nevent_duration: 45m\n"), 0o644))

	v := New()
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, exporter.FormatICS, cfg.Format)
	assert.Equal(t, pdf.StrategyAuto, cfg.Strategy)
	assert.Equal(t, 2.0, cfg.JoinTolerance)
	assert.Equal(t, 45*time.Minute, cfg.EventDuration)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	used, err := ReadFile(New(), "")
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadFileSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Name+".yaml"), []byte("summary: true\n"), 0o644))
	t.Chdir(dir)

	v := New()
	used, err := ReadFile(v, "")
	require.NoError(t, err)
	assert.NotEmpty(t, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Summary)
}

func TestBindFlagsTakePrecedence(t *testing.T) {
	t.Setenv("EXTRACT_SCHEDULE_STRATEGY", "text")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("strategy", "lines", "")
	flags.String("log-level", "info", "")
	flags.Duration("event-duration", exporter.DefaultEventDuration, "")

	v := New()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, pdf.StrategyText, cfg.Strategy, "environment beats an unset flag")

	require.NoError(t, flags.Parse([]string{"--strategy", "auto", "--log-level", "warn", "--event-duration", "2h"}))
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, pdf.StrategyAuto, cfg.Strategy)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.EventDuration)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{KeyFormat, "csv"},
		{KeyStrategy, "stream"},
		{KeyLogLevel, "loud"},
		{KeyTimezone, "Mars/Olympus"},
		{KeyEventDuration, "0s"},
		{KeySnapTolerance, -1.0},
		{KeyIntersectionTolerance, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
