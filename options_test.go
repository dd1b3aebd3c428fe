package autoinject_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnbullerin/autoinject"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autoinject.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  development: true
sweep_interval: 30s
disable_goroutine_informant: true
`)

	cfg, err := autoinject.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.True(t, cfg.DisableGoroutineInformant)
}

func TestLoadConfig_DefaultsWhenOmitted(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)

	cfg, err := autoinject.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.False(t, cfg.DisableGoroutineInformant)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := autoinject.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
	assert.True(t, autoinject.IsConfigurationError(err))
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfigFile(t, "logging: [unclosed")

	_, err := autoinject.LoadConfig(path)

	assert.Error(t, err)
	assert.True(t, autoinject.IsConfigurationError(err))
}

func TestLoadConfig_BadSweepInterval(t *testing.T) {
	path := writeConfigFile(t, "sweep_interval: soonish")

	_, err := autoinject.LoadConfig(path)

	assert.Error(t, err)
	assert.True(t, autoinject.IsConfigurationError(err))
}

func TestWithConfig_AppliesLoadedValues(t *testing.T) {
	path := writeConfigFile(t, `
sweep_interval: 250ms
disable_goroutine_informant: true
`)
	cfg, err := autoinject.LoadConfig(path)
	require.NoError(t, err)

	inj := autoinject.New(
		autoinject.WithConfig(cfg),
		autoinject.WithLogger(autoinject.NewNoopLogger()),
	)
	defer inj.Shutdown()

	// Only the scope informant remains when the goroutine informant is
	// disabled and no extra informants were supplied.
	informants := inj.Informants()
	require.Len(t, informants, 1)
	assert.Equal(t, autoinject.ScopeInformantName, informants[0].Name())
}

func TestWithInformants_RegisteredAtConstruction(t *testing.T) {
	informant := autoinject.NewNamedInformant()
	inj := autoinject.New(
		autoinject.WithLogger(autoinject.NewNoopLogger()),
		autoinject.WithInformants(informant),
	)
	defer inj.Shutdown()

	names := make([]string, 0, 3)
	for _, registered := range inj.Informants() {
		names = append(names, registered.Name())
	}
	assert.Contains(t, names, autoinject.GoroutineInformantName)
	assert.Contains(t, names, autoinject.ScopeInformantName)
	assert.Contains(t, names, autoinject.NamedInformantName)
}
