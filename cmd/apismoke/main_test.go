package main

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/stub"
)

func startStub(t *testing.T) (*stub.Server, string) {
	t.Helper()
	s := stub.New(stub.Options{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

// execute runs the CLI with a fresh viper and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(viper.New())
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apismoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestWeightCommand_Passes(t *testing.T) {
	s, url := startStub(t)
	out, err := execute(t, "weight", "--base-url", url, "--no-color", "--log-level", "error")
	require.NoError(t, err, out)
	assert.Contains(t, out, "weight: all tests passed")
	assert.Contains(t, out, "1 warning(s)")
	_, weights := s.Counts()
	assert.Equal(t, 1, weights)
}

func TestReportCommand_CleanupFlag(t *testing.T) {
	s, url := startStub(t)
	out, err := execute(t, "report", "--base-url", url, "--cleanup", "--no-color", "--log-level", "error")
	require.NoError(t, err, out)
	reports, _ := s.Counts()
	assert.Equal(t, 0, reports)
}

func TestWeightCommand_BadPasswordFails(t *testing.T) {
	_, url := startStub(t)
	out, err := execute(t, "weight", "--base-url", url, "--password", "wrong", "--no-color", "--log-level", "error")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSuitesFailed))
	assert.Contains(t, out, "tests failed")
}

func TestFoodCommand_MissingImageFailsBeforeNetwork(t *testing.T) {
	s, url := startStub(t)
	missing := filepath.Join(t.TempDir(), "nope.jpg")
	out, err := execute(t, "food", missing, "--food-base-url", url, "--no-color", "--log-level", "error")
	require.ErrorIs(t, err, errSuitesFailed)
	assert.Contains(t, out, "tests failed")
	assert.Equal(t, 0, s.Requests(constants.PathHealth))
}

func TestFoodCommand_Upload(t *testing.T) {
	s, url := startStub(t)
	img := filepath.Join(t.TempDir(), "meal.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG fake image bytes"), 0o600))

	out, err := execute(t, "food", img, "--upload", "--food-base-url", url, "--no-color", "--log-level", "error")
	require.NoError(t, err, out)
	assert.Equal(t, 1, s.Requests(constants.PathAnalyzeUpload))
	assert.Equal(t, 0, s.Requests(constants.PathAnalyzeFood))
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	_, url := startStub(t)
	cfg := writeConfig(t, "base_url: http://127.0.0.1:1\nlogging:\n  level: error\n")
	t.Setenv("APISMOKE_BASE_URL", url)

	out, err := execute(t, "report", "--config", cfg, "--no-color")
	require.NoError(t, err, out)
	assert.Contains(t, out, "report: all tests passed")
}

func TestAllCommand_RecordsHistoryAndMetrics(t *testing.T) {
	s, url := startStub(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	prom := filepath.Join(dir, "apismoke.prom")
	cfg := writeConfig(t, strings.Join([]string{
		"base_url: " + url,
		"food_base_url: " + url,
		"cleanup: true",
		"logging:",
		"  level: error",
		"history:",
		"  enabled: true",
		"  driver: sqlite",
		"  sqlite:",
		"    path: " + db,
		"metrics:",
		"  textfile: " + prom,
		"",
	}, "\n"))

	out, err := execute(t, "all", "--config", cfg, "--no-color")
	require.NoError(t, err, out)
	for _, suite := range []string{"food", "report", "weight"} {
		assert.Contains(t, out, suite+": all tests passed")
	}
	reports, weights := s.Counts()
	assert.Zero(t, reports)
	assert.Zero(t, weights)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apismoke_suite_runs_total")

	out, err = execute(t, "history", "--config", cfg, "--steps", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "food")
	assert.Contains(t, out, "report")
	assert.Contains(t, out, "weight")
	assert.Contains(t, out, "Health check")

	out, err = execute(t, "history", "--config", cfg, "--suite", "weight", "--limit", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, " food ")
	assert.Contains(t, out, "weight")
}

func TestHistoryCommand_Disabled(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")
	out, err := execute(t, "history", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "run history is disabled")
}

func TestUnknownConfigKeyIsRejected(t *testing.T) {
	cfg := writeConfig(t, "base_urll: http://x\n")
	_, err := execute(t, "report", "--config", cfg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errSuitesFailed))
}

func TestExplicitMissingConfigIsAnError(t *testing.T) {
	_, err := execute(t, "weight", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTooManyArgs(t *testing.T) {
	_, err := execute(t, "food", "a.jpg", "b.jpg")
	require.Error(t, err)
	_, err = execute(t, "weight", "extra")
	require.Error(t, err)
}
