package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFamilyName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "luo",
			expected: "luo",
		},
		{
			name:     "uppercase converted",
			input:    "LuoFamily",
			expected: "luofamily",
		},
		{
			name:     "spaces and hyphens to underscores",
			input:    "luo - li",
			expected: "luo_li",
		},
		{
			name:     "special characters removed",
			input:    "luo@family!",
			expected: "luofamily",
		},
		{
			name:     "empty string returns default",
			input:    "",
			expected: DefaultFamily,
		},
		{
			name:     "only non-ascii returns default",
			input:    "罗家",
			expected: DefaultFamily,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFamilyName(tt.input))
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 300, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, int64(16384), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 512, cfg.Server.MaxQueryLength)
	assert.Equal(t, 50, cfg.Server.MaxNameLength)
	assert.Equal(t, 100, cfg.Server.MaxGeneration)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kin init")
	})

	t.Run("default file round trip", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		assert.True(t, Exists(dir))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	})

	t.Run("write default refuses to overwrite", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		assert.Error(t, WriteDefault(dir))
	})

	t.Run("env overrides", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		t.Setenv("KIN_API_KEY", "secret")
		t.Setenv("KIN_LOG_LEVEL", "debug")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Server.APIKey)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestSQLitePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t,
		filepath.Join("/base", ".kin", "families", "luo_li", "kin.db"),
		cfg.SQLitePath("/base", "Luo Li"),
	)

	cfg.SQLite.Path = "/tmp/override.db"
	assert.Equal(t, "/tmp/override.db", cfg.SQLitePath("/base", "luo"))
}

func TestFamiliesConfig(t *testing.T) {
	dir := t.TempDir()

	families, err := LoadFamilies(dir)
	require.NoError(t, err)
	assert.Empty(t, families.Families)

	_, err = families.Get("luo")
	require.Error(t, err)

	families.Add("luo", FamilyEntry{Description: "罗氏"})
	families.Add("li", FamilyEntry{})
	require.NoError(t, families.Save(dir))

	_, err = os.Stat(FamiliesFilePath(dir))
	require.NoError(t, err)

	loaded, err := LoadFamilies(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"li", "luo"}, loaded.Names())

	entry, err := loaded.Get("luo")
	require.NoError(t, err)
	assert.Equal(t, "罗氏", entry.Description)

	_, err = loaded.Get("wang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "li, luo")

	loaded.Remove("li")
	assert.False(t, loaded.Exists("li"))
	assert.True(t, loaded.Exists("luo"))
}
