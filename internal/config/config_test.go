package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
discord:
  token: test-token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Discord.Token)
	assert.Equal(t, "data/configs", cfg.Data.ConfigsDir)
	assert.Equal(t, "data/scores", cfg.Data.ScoresDir)
	assert.Equal(t, "data/inventories", cfg.Data.InventoriesDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Content.LevelsPath)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
discord:
  token: test-token
  status: "hunting zombies"
data:
  configs_dir: /var/lib/gridkeeper/configs
content:
  levels_path: content/levels.yaml
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hunting zombies", cfg.Discord.Status)
	assert.Equal(t, "/var/lib/gridkeeper/configs", cfg.Data.ConfigsDir)
	assert.Equal(t, "content/levels.yaml", cfg.Content.LevelsPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
discord:
  token: file-token
`)
	t.Setenv("GRIDKEEPER_DISCORD_TOKEN", "env-token")
	t.Setenv("GRIDKEEPER_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token, "environment must win over the file")
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("GRIDKEEPER_DISCORD_TOKEN", "env-only-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only-token", cfg.Discord.Token)
}

func TestLoadRejectsMissingToken(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord.token")
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cfg := Config{
		Discord: DiscordConfig{Token: "t"},
		Data: DataConfig{
			ConfigsDir:     "a",
			ScoresDir:      "b",
			InventoriesDir: "c",
		},
		Logging: LoggingConfig{Level: "verbose", Format: "json"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	cfg.Logging = LoggingConfig{Level: "info", Format: "xml"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidateCollectsAllViolations(t *testing.T) {
	err := Config{Logging: LoggingConfig{Level: "info", Format: "json"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord.token")
	assert.Contains(t, err.Error(), "data.configs_dir")
	assert.Contains(t, err.Error(), "data.scores_dir")
	assert.Contains(t, err.Error(), "data.inventories_dir")
}
