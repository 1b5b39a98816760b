package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{50, 100, 121, 184}, cfg.Sweep.DataSizes)
	assert.Equal(t, []int{100, 500, 1000}, cfg.Sweep.LoadLevels)
	assert.Equal(t, 100, cfg.Sweep.Iterations)
	assert.Equal(t, 5, cfg.Protocol.WarmupCalls)
	assert.Equal(t, 2*time.Second, cfg.Protocol.Cooldown)
	assert.Equal(t, 3*time.Second, cfg.Protocol.BetweenRounds)
	assert.Equal(t, 3, cfg.Quick.WarmupCalls)
	assert.Equal(t, 10*time.Second, cfg.Endpoints.ConnectTimeout)
	assert.Equal(t, 26, cfg.Configurations())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apibench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sweep:
  data_sizes: [10]
  iterations: 2
protocol:
  cooldown: 250ms
endpoints:
  rest_base_url: http://catalog:3000/api
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, cfg.Sweep.DataSizes)
	assert.Equal(t, []int{100, 500, 1000}, cfg.Sweep.LoadLevels)
	assert.Equal(t, 2, cfg.Sweep.Iterations)
	assert.Equal(t, 250*time.Millisecond, cfg.Protocol.Cooldown)
	assert.Equal(t, 100*time.Millisecond, cfg.Protocol.WarmupDelay)
	assert.Equal(t, "http://catalog:3000/api", cfg.Endpoints.RESTBaseURL)
	assert.Equal(t, "http://localhost:4000/graphql", cfg.Endpoints.GraphQLURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to open config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sweep:\n  samples: 3\n"), 0o644))
	_, err = Load(path)
	require.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_EmptyPathAndEmptyFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	var c Config
	require.NoError(t, Decode(strings.NewReader(""), &c))
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Default()))
	assert.Contains(t, buf.String(), "warmup_delay: 100ms")

	var cfg Config
	require.NoError(t, Decode(&buf, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "zero iterations", mutate: func(c *Config) { c.Sweep.Iterations = 0 }, want: "sweep.iterations"},
		{name: "empty data sizes", mutate: func(c *Config) { c.Sweep.DataSizes = nil }, want: "sweep.data_sizes must not be empty"},
		{name: "negative load level", mutate: func(c *Config) { c.Sweep.LoadLevels = []int{100, -1} }, want: "sweep.load_levels must be positive"},
		{name: "zero load level", mutate: func(c *Config) { c.Sweep.LoadLevels = []int{0} }, want: "sweep.load_levels must be positive"},
		{name: "negative delay", mutate: func(c *Config) { c.Quick.Cooldown = -time.Second }, want: "quick.cooldown"},
		{name: "missing graphql url", mutate: func(c *Config) { c.Endpoints.GraphQLURL = "" }, want: "endpoints.graphql_url"},
		{name: "zero timeout", mutate: func(c *Config) { c.Endpoints.Timeout = 0 }, want: "timeouts must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
