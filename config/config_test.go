package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/uncertainty/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.EqualValues(t, 64, cfg.Precision)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.False(t, cfg.Builder.SignedSingleTerm)
	assert.Empty(t, cfg.Builder.Options())
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "conf.yaml", `
precision: 128
server:
  host: localhost
  port: 9000
logger:
  level: debug
  format: json
builder:
  signed_single_term: true
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.EqualValues(t, 128, cfg.Precision)
	assert.Equal(t, "localhost:9000", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Builder.SignedSingleTerm)
	assert.Len(t, cfg.Builder.Options(), 1)
	assert.Equal(t, p, cfg.File)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UNCERTAINTY_SERVER_PORT", "7070")
	t.Setenv("UNCERTAINTY_PRECISION", "256")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.EqualValues(t, 256, cfg.Precision)
}

func TestLoadSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "uncertainty.yaml", "server:\n  port: 1234\n")
	t.Chdir(dir)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.NotEmpty(t, cfg.File)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"port":      "server:\n  port: 70000\n",
		"precision": "precision: 1\n",
		"level":     "logger:\n  level: loud\n",
		"format":    "logger:\n  format: xml\n",
		"host":      "server:\n  host: 'not a host'\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "conf.yaml", content)
			_, err := config.Load(p)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoggerApply(t *testing.T) {
	c := &config.Logger{Level: "warn", Format: "json", Output: "stdout"}
	l, err := c.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	assert.Same(t, os.Stdout, l.Out)

	c = &config.Logger{Level: "nope"}
	_, err = c.NewLogger()
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "conf.yaml", "server:\n  port: 1000\n")
	got := make(chan *config.Config, 16)
	w, err := config.Watch(p, func(c *config.Config) {
		select {
		case got <- c:
		default:
		}
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, w.Config().Server.Port)

	require.NoError(t, os.WriteFile(p, []byte("server:\n  port: 2000\n"), 0o644))
	// Writing may be observed in pieces, so wait for the final content.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Server.Port == 2000 {
				assert.Equal(t, 2000, w.Config().Server.Port)
				return
			}
		case <-timeout:
			t.Fatal("no reload after write")
		}
	}
}

func TestWatchNeedsFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := config.Watch("", func(*config.Config) {}, nil)
	assert.Error(t, err)
}
