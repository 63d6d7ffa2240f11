package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motolog/internal/config"
)

func testConfig(t *testing.T) config.Config {
	cfg, err := config.Parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	return cfg
}

func execute(t *testing.T, input string, args ...string) string {
	t.Helper()
	cmd := rootCmd(testConfig(t))
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRootCmd_Defaults(t *testing.T) {
	cmd := rootCmd(testConfig(t))

	store, err := cmd.Flags().GetString("store")
	require.NoError(t, err)
	assert.Equal(t, "memory", store)

	dir, err := cmd.Flags().GetString("reports-dir")
	require.NoError(t, err)
	assert.Equal(t, "maintenance_reports", dir)
}

func TestRootCmd_SavesDailyReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	input := strings.Join([]string{
		"1", "Oil Filter", "45.50", "01/03/2024", "15000", "3000", "6",
		"5", "6",
	}, "\n") + "\n"

	out := execute(t, input, "--reports-dir", dir)
	assert.Contains(t, out, "Item added successfully!")

	path := filepath.Join(dir, "report_"+time.Now().Format("2006-01-02")+".txt")
	assert.Contains(t, out, "saved to: "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  - Next Service (date): 28/08/2024")
}

func TestRootCmd_SQLiteStorePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "console.db")
	args := []string{"--store", "sqlite", "--sqlite-path", dbPath}

	execute(t, "1\nChain\n80\n15/01/2024\n10000\n2000\n12\n6\n", args...)
	out := execute(t, "4\n6\n", args...)
	assert.Contains(t, out, "Item: Chain")
	assert.Contains(t, out, "  - Next Service (date): 09/01/2025")
}

func TestRootCmd_UnknownStore(t *testing.T) {
	cmd := rootCmd(testConfig(t))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--store", "paper"})
	assert.Error(t, cmd.Execute())
}

func TestConsoleLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cmd := rootCmd(testConfig(t))
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Equal(t, "warn", consoleLogLevel(cmd, config.Log{Level: "info"}))

	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, "debug", consoleLogLevel(cmd, config.Log{Level: "debug"}))

	cmd = rootCmd(testConfig(t))
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "error"}))
	assert.Equal(t, "error", consoleLogLevel(cmd, config.Log{Level: "debug"}))
}
