package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge/pkg/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Empty(t, cfg.Executor.ClassTypes())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "comfyforge.yaml", `
logging:
  level: debug
  format: json
server:
  addr: ":9000"
executor:
  available_node_types:
    - NunchakuFluxDiTLoader
    - MultiplySigmas
`)
	t.Setenv("COMFYFORGE_SERVER_ADDR", ":9100")

	cfg, err := Load(Options{File: file})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9100", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t,
		[]domain.ClassType{domain.NunchakuFluxDiTLoader, domain.MultiplySigmas},
		cfg.Executor.ClassTypes())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := writeFile(t, dir, "test.env", "COMFYFORGE_OUTPUT_FORMAT=yaml\n")
	t.Cleanup(func() { os.Unsetenv("COMFYFORGE_OUTPUT_FORMAT") })

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "comfyforge.yaml", "output:\n  format: yaml\n")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(Options{File: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "logging:\n  level: loud\n")
	_, err = Load(Options{File: bad})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Logging: LoggingConfig{Level: "info", Format: "text"},
			Server:  ServerConfig{Addr: ":8080", MetricsPath: "/metrics"},
			Output:  OutputConfig{Format: "json"},
		}
	}
	c := valid()
	assert.NoError(t, c.Validate())

	for name, mutate := range map[string]func(*Config){
		"format":  func(c *Config) { c.Logging.Format = "xml" },
		"output":  func(c *Config) { c.Output.Format = "toml" },
		"addr":    func(c *Config) { c.Server.Addr = "" },
		"metrics": func(c *Config) { c.Server.MetricsPath = "metrics" },
	} {
		c := valid()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
