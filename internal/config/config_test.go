package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("data_dir", "data", "")
	flags.String("listen_addr", ":8080", "")
	flags.String("log_level", "info", "")
	flags.Int("bcrypt_cost", 0, "")
	flags.String("import_dir", "", "")
	flags.String("import_git", "", "")
	flags.String("import_user", "", "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(testFlags())
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memodeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/memodeck\nlog_level: debug\n"), 0o644))

	flags := testFlags()
	require.NoError(t, flags.Set("config", path))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/memodeck", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr, "flag default fills what the file leaves unset")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memodeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))
	t.Setenv("MEMODECK_LOG_LEVEL", "warn")

	flags := testFlags()
	require.NoError(t, flags.Set("config", path))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestExplicitFlagWinsOverEnv(t *testing.T) {
	t.Setenv("MEMODECK_LISTEN_ADDR", ":9999")

	flags := testFlags()
	require.NoError(t, flags.Set("listen_addr", ":7777"))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.ListenAddr)
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Set("config", "/nonexistent/memodeck.yaml"))

	_, err := Load(flags)
	assert.Error(t, err)
}
