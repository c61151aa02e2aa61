package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMainConfig(), cfg)
}

func TestLoadMainConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
input_dir: ./in
max_concurrency: 2
continue_on_error: false
output_file_name: out.json
server:
  addr: ":9000"
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.False(t, cfg.ContinueOnError)
	assert.Equal(t, "out.json", cfg.OutputFileName)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
}

func TestLoadMainConfigEnvOverride(t *testing.T) {
	t.Setenv("TRADERCFG_SERVER_ADDR", ":7070")
	t.Setenv("TRADERCFG_LOG_LEVEL", "debug")

	cfg, err := LoadMainConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMainConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadMainConfig(writeFile(t, dir, "a.yaml", "max_concurrency: 0\n"))
	assert.Error(t, err)

	_, err = LoadMainConfig(writeFile(t, dir, "b.yaml", "log_format: xml\n"))
	assert.Error(t, err)

	_, err = LoadMainConfig(writeFile(t, dir, "c.yaml", "input_dir: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sale.yaml", `
profile_name: Summer sale
file_matching_patterns: ["*trader*.json"]
operations:
  - type: global
    price_percent: -10
    stock: "-1"
  - type: category
    categories: [Weapons]
    price_percent: 25
    apply_to_sell: false
`)
	writeFile(t, dir, "restock.yml", `
file_matching_patterns: ["*.json"]
operations:
  - type: global
    stock: "100"
`)

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	sale := profiles["Summer sale"]
	require.NotNil(t, sale)
	require.Len(t, sale.Operations, 2)
	assert.Equal(t, OperationGlobal, sale.Operations[0].Type)
	assert.Equal(t, -10.0, sale.Operations[0].PricePercent)
	assert.Equal(t, "-1", sale.Operations[0].Stock)
	assert.True(t, sale.Operations[1].BuyEnabled())
	assert.False(t, sale.Operations[1].SellEnabled())
	assert.True(t, sale.Matches("my_trader_prices.json"))
	assert.False(t, sale.Matches("other.json"))

	restock := profiles["restock"]
	require.NotNil(t, restock)
	assert.Equal(t, filepath.Join(dir, "restock.yml"), restock.SourceFile)
}

func TestLoadProfilesMissingDir(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestLoadProfileInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown type":   "operations:\n  - type: magic\n",
		"out of range":   "operations:\n  - type: global\n    price_percent: 600\n",
		"stock on cat":   "operations:\n  - type: category\n    stock: \"1\"\n",
		"cats on global": "operations:\n  - type: global\n    categories: [A]\n",
		"bad pattern":    "file_matching_patterns: [\"[\"]\n",
		"bad yaml":       "operations: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.yaml", content)
			_, err := LoadProfile(path)
			assert.Error(t, err)
		})
	}
}
