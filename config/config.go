// Package config holds the sweep and protocol settings of a run. Values
// come from Default and may be overlaid with a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Sweep     Sweep     `yaml:"sweep"`
	Protocol  Protocol  `yaml:"protocol"`
	Quick     Quick     `yaml:"quick"`
	Endpoints Endpoints `yaml:"endpoints"`
	Output    Output    `yaml:"output"`
}

// Sweep is the measured grid of a full run.
type Sweep struct {
	DataSizes  []int `yaml:"data_sizes"`
	LoadLevels []int `yaml:"load_levels"`
	Iterations int   `yaml:"iterations"`
}

// Protocol holds the pauses of the full run.
type Protocol struct {
	WarmupCalls       int           `yaml:"warmup_calls"`
	WarmupDelay       time.Duration `yaml:"warmup_delay"`
	Cooldown          time.Duration `yaml:"cooldown"`
	PreTransportPause time.Duration `yaml:"pre_transport_pause"`
	BetweenConfigs    time.Duration `yaml:"between_configs"`
	BetweenTransports time.Duration `yaml:"between_transports"`
	BetweenRounds     time.Duration `yaml:"between_rounds"`
}

// Quick holds the pauses of the quick comparison.
type Quick struct {
	WarmupCalls       int           `yaml:"warmup_calls"`
	WarmupDelay       time.Duration `yaml:"warmup_delay"`
	Cooldown          time.Duration `yaml:"cooldown"`
	BetweenTransports time.Duration `yaml:"between_transports"`
	BetweenRounds     time.Duration `yaml:"between_rounds"`
}

type Endpoints struct {
	RESTBaseURL string `yaml:"rest_base_url"`
	GraphQLURL  string `yaml:"graphql_url"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
	// ConnectTimeout bounds the connectivity preflight.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Output selects where CSV exports go. FallbackDir is used when ResultsDir
// cannot be written.
type Output struct {
	ResultsDir  string `yaml:"results_dir"`
	FallbackDir string `yaml:"fallback_dir"`
}

func Default() Config {
	return Config{
		Sweep: Sweep{
			DataSizes:  []int{50, 100, 121, 184},
			LoadLevels: []int{100, 500, 1000},
			Iterations: 100,
		},
		Protocol: Protocol{
			WarmupCalls:       5,
			WarmupDelay:       100 * time.Millisecond,
			Cooldown:          2 * time.Second,
			PreTransportPause: 500 * time.Millisecond,
			BetweenConfigs:    200 * time.Millisecond,
			BetweenTransports: time.Second,
			BetweenRounds:     3 * time.Second,
		},
		Quick: Quick{
			WarmupCalls:       3,
			WarmupDelay:       100 * time.Millisecond,
			Cooldown:          time.Second,
			BetweenTransports: 500 * time.Millisecond,
			BetweenRounds:     time.Second,
		},
		Endpoints: Endpoints{
			RESTBaseURL:    "http://localhost:4000/api",
			GraphQLURL:     "http://localhost:4000/graphql",
			Timeout:        30 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Output: Output{
			ResultsDir:  ".",
			FallbackDir: filepath.Join(os.TempDir(), "apibench"),
		},
	}
}

// Load reads path over Default. Unknown keys are rejected. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays the YAML document in r onto cfg.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Write stores cfg as YAML, e.g. to seed an editable config file.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Sweep.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("sweep.iterations must be positive, got %d", c.Sweep.Iterations))
	}
	if len(c.Sweep.DataSizes) == 0 {
		errs = append(errs, errors.New("sweep.data_sizes must not be empty"))
	}
	for _, v := range c.Sweep.DataSizes {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("sweep.data_sizes must be positive, got %d", v))
		}
	}
	if len(c.Sweep.LoadLevels) == 0 {
		errs = append(errs, errors.New("sweep.load_levels must not be empty"))
	}
	for _, v := range c.Sweep.LoadLevels {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("sweep.load_levels must be positive, got %d", v))
		}
	}
	if c.Protocol.WarmupCalls < 0 || c.Quick.WarmupCalls < 0 {
		errs = append(errs, errors.New("warmup_calls must not be negative"))
	}
	for name, d := range map[string]time.Duration{
		"protocol.warmup_delay":        c.Protocol.WarmupDelay,
		"protocol.cooldown":            c.Protocol.Cooldown,
		"protocol.pre_transport_pause": c.Protocol.PreTransportPause,
		"protocol.between_configs":     c.Protocol.BetweenConfigs,
		"protocol.between_transports":  c.Protocol.BetweenTransports,
		"protocol.between_rounds":      c.Protocol.BetweenRounds,
		"quick.warmup_delay":           c.Quick.WarmupDelay,
		"quick.cooldown":               c.Quick.Cooldown,
		"quick.between_transports":     c.Quick.BetweenTransports,
		"quick.between_rounds":         c.Quick.BetweenRounds,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Endpoints.RESTBaseURL == "" {
		errs = append(errs, errors.New("endpoints.rest_base_url must be set"))
	}
	if c.Endpoints.GraphQLURL == "" {
		errs = append(errs, errors.New("endpoints.graphql_url must be set"))
	}
	if c.Endpoints.Timeout <= 0 || c.Endpoints.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("endpoints timeouts must be positive"))
	}
	if c.Output.ResultsDir == "" && c.Output.FallbackDir == "" {
		errs = append(errs, errors.New("output needs results_dir or fallback_dir"))
	}
	return errors.Join(errs...)
}

// Configurations is the number of distinct cells a transport runs per
// round: the products and packages grids plus one search and one scenario.
func (c Config) Configurations() int {
	return 2*len(c.Sweep.DataSizes)*len(c.Sweep.LoadLevels) + 2
}
