package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdpower/ctxgw-report/internal/config"
	"github.com/sdpower/ctxgw-report/internal/types"
)

const telemetryLog = `{"path":"/v1/messages","model":"claude-opus-4-1-20250805","compression_used":true,"original_tokens":10000,"tokens_saved":4000,"shadow_refs_created":3,"expand_calls_found":1,"timestamp":"2025-01-01T10:00:00"}
{"path":"/v1/messages","model":"claude-sonnet-4-5-20250929","compression_used":false,"original_tokens":2000,"tokens_saved":0,"timestamp":"2025-01-02T09:30:00"}
{"path":"/health","timestamp":"2025-01-02T09:31:00"}
not json
`

const compressionLog = `{"tool_name":"read_file","status":"compressed","original_bytes":2000,"compressed_bytes":500,"min_threshold":1024}
{"tool_name":"glob","status":"passthrough_small","original_bytes":120}
`

// isolate keeps the developer's config, .env files and CTXGW_ variables out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"CTXGW_SERVICE", "CTXGW_TELEMETRY_PATH", "CTXGW_COMPRESSION_PATH", "CTXGW_PRICES_URL",
		"CTXGW_PRICES_TIMEOUT", "CTXGW_OFFLINE", "CTXGW_GATEWAY_URL", "CTXGW_SETTINGS_PATH", "CTXGW_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
	return dir
}

func writeLogs(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "telemetry.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(telemetryLog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compression.jsonl"), []byte(compressionLog), 0o644))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportJSON(t *testing.T) {
	dir := isolate(t)
	path := writeLogs(t, dir)

	out, err := execute(t, NewReportCommand(), path, "--offline", "--format", "json")
	require.NoError(t, err)

	var report types.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	require.NotNil(t, report.Tokens)
	assert.Equal(t, 2, report.Tokens.TotalRequests)
	assert.Equal(t, 1, report.Tokens.CompressedRequests)
	assert.Equal(t, 4000, report.Tokens.TotalSavedTokens)
	assert.InDelta(t, 4000.0/1e6*15, report.Tokens.TotalMoneySaved, 1e-12)

	require.NotNil(t, report.Sizes)
	assert.Equal(t, 1024, report.Sizes.CurrentThreshold)
	assert.Equal(t, map[string]int{"compressed": 1, "passthrough_small": 1}, report.Sizes.StatusCounts)
	assert.Empty(t, report.Sizes.Thresholds, "too few samples for the sweep")

	require.NotNil(t, report.Daily)
	assert.Equal(t, 2, report.Daily.ActiveDays)
}

func TestReportTable(t *testing.T) {
	dir := isolate(t)
	path := writeLogs(t, dir)

	out, err := execute(t, NewReportCommand(), path, "--offline", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "Bottom Line")
	assert.Contains(t, out, "Token Savings")
	assert.Contains(t, out, "By Tool")
	assert.Contains(t, out, "Opus-4.1")
	assert.NotContains(t, out, "Threshold Analysis")
	assert.NotContains(t, out, "\033[")
}

func TestReportWithoutCompressionLog(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "telemetry.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(telemetryLog), 0o644))

	out, err := execute(t, NewReportCommand(), path, "--offline", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Token Savings")
	assert.NotContains(t, out, "Size Distribution")
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	isolate(t)

	_, err := execute(t, NewReportCommand(), "--format", "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestReportInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := writeLogs(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte("log_level: loud\n"), 0o644))

	_, err := execute(t, NewReportCommand(), path, "--offline")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestPipelineNoSource(t *testing.T) {
	dir := isolate(t)
	cfg, err := config.LoadFrom(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	cfg.Offline = true

	failing := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("docker: command not found")
	}
	_, err = pipeline{cfg: cfg, runner: failing}.run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoLogSource))
}

func TestPipelineContainer(t *testing.T) {
	dir := isolate(t)
	cfg, err := config.LoadFrom(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	cfg.Offline = true

	var (
		mu    sync.Mutex
		calls []string
	)
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		mu.Lock()
		calls = append(calls, strings.Join(args, " "))
		mu.Unlock()
		switch {
		case args[0] == "compose":
			return []byte("abc123\n"), nil
		case args[len(args)-1] == cfg.TelemetryPath:
			return []byte(telemetryLog), nil
		default:
			return []byte(compressionLog), nil
		}
	}

	report, err := pipeline{cfg: cfg, runner: runner}.run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report.Tokens)
	require.NotNil(t, report.Sizes)
	assert.Equal(t, "compose ps -q context-gateway", calls[0])
	assert.Len(t, calls, 3)
}

func TestToggle(t *testing.T) {
	dir := isolate(t)
	settingsPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`{"theme":"dark"}`), 0o644))

	out, err := execute(t, NewToggleCommand(), "--settings", settingsPath, "--url", "http://gw:9000")
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway ON")
	assert.Contains(t, out, "http://gw:9000")
	assert.FileExists(t, filepath.Join(dir, "settings.json.bak"))

	raw, err := os.ReadFile(settingsPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ANTHROPIC_BASE_URL": "http://gw:9000"`)
	assert.Contains(t, string(raw), `"theme": "dark"`)

	out, err = execute(t, NewToggleCommand(), "--settings", settingsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway OFF")

	out, err = execute(t, NewToggleCommand(), "--settings", settingsPath, "--off")
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway OFF")
}

func TestToggleFlagsExclusive(t *testing.T) {
	dir := isolate(t)
	settingsPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`{}`), 0o644))

	_, err := execute(t, NewToggleCommand(), "--settings", settingsPath, "--on", "--off")
	assert.Error(t, err)
}

func TestToggleMissingSettings(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, NewToggleCommand(), "--settings", filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}
