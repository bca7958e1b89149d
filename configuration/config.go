package configuration

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"HLL-EVAL/checkpoint"
	"HLL-EVAL/general"
	"HLL-EVAL/simulation"
)

const EnvPrefix = "HLLEVAL"

var (
	ErrNoEstimators      = errors.New("invalid estimator list, must name at least 1")
	ErrNoPrecisions      = errors.New("invalid precision list, must contain at least 1")
	ErrInvalidMaxSize    = errors.New("invalid max size, must be at least 1")
	ErrInvalidTrials     = errors.New("invalid number of trials, must be at least 1")
	ErrInvalidRuns       = errors.New("invalid number of bias runs, must be at least 1")
	ErrInvalidWorkers    = errors.New("invalid worker count, must be at least 1")
	ErrInvalidThreshold  = errors.New("invalid divergence threshold, must not be negative")
	ErrInvalidProfile    = errors.New("invalid profile mode, must be cpu, mem or empty")
	ErrMissingOutputDir  = errors.New("output directory must be set")
	ErrInvalidConfigFile = errors.New("unable to read config file")
)

type AccuracyConfig struct {
	MaxSize uint64
	// Step is parsed by checkpoint.ParseStep, e.g. "pow2:6" or "linear:1000".
	Step                string
	Trials              int
	Parallelism         int // 0 means GOMAXPROCS
	DivergenceThreshold float64
	OutputDir           string
}

type PerfConfig struct {
	Workers   []int
	InsertOps uint64
	QueryOps  uint64
	Seed      uint64
}

type BiasConfig struct {
	Runs int
	// MaxCardinality of 0 means 5 * 2^precision.
	MaxCardinality uint64
	Seed           uint64
}

// Config drives every sub-command. Each (estimator, precision) pair is one
// independent run.
type Config struct {
	LogLevel    string
	MetricsAddr string
	Profile     string
	Estimators  []string
	Precisions  []int
	Accuracy    AccuracyConfig
	Perf        PerfConfig
	Bias        BiasConfig
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Estimators: []string{"all"},
		Precisions: []int{16},
		Accuracy: AccuracyConfig{
			MaxSize:             1_000_000_000,
			Step:                "pow2:6",
			Trials:              32,
			DivergenceThreshold: simulation.DefaultDivergenceThreshold,
			OutputDir:           "results",
		},
		Perf: PerfConfig{
			Workers:   []int{16},
			InsertOps: 100_000_000,
			QueryOps:  1_000_000,
		},
		Bias: BiasConfig{
			Runs: 200,
		},
	}
}

func (c *Config) Validate() error {
	if len(c.Estimators) == 0 {
		return ErrNoEstimators
	}
	if len(c.Precisions) == 0 {
		return ErrNoPrecisions
	}
	for _, p := range c.Precisions {
		if p < 0 || p > 255 {
			return errors.Wrapf(general.ErrPrecisionOutOfRange, "got %d", p)
		}
		if err := general.CheckPrecision(uint8(p)); err != nil {
			return err
		}
	}
	if c.Accuracy.MaxSize < 1 {
		return ErrInvalidMaxSize
	}
	if c.Accuracy.Trials < 1 {
		return ErrInvalidTrials
	}
	if c.Accuracy.DivergenceThreshold < 0 {
		return ErrInvalidThreshold
	}
	if c.Accuracy.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if _, err := checkpoint.ParseStep(c.Accuracy.Step); err != nil {
		return err
	}
	for _, w := range c.Perf.Workers {
		if w < 1 {
			return errors.Wrapf(ErrInvalidWorkers, "got %d", w)
		}
	}
	if c.Bias.Runs < 1 {
		return ErrInvalidRuns
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return errors.Wrapf(ErrInvalidProfile, "got %q", c.Profile)
	}
	return nil
}

// PrecisionValues returns Precisions as register exponents. Call Validate first.
func (c *Config) PrecisionValues() []uint8 {
	out := make([]uint8, len(c.Precisions))
	for i, p := range c.Precisions {
		out[i] = uint8(p)
	}
	return out
}

// AggregateOptions builds the trial batch for one precision.
func (c *Config) AggregateOptions(precision uint8) (simulation.AggregateOptions, error) {
	step, err := checkpoint.ParseStep(c.Accuracy.Step)
	if err != nil {
		return simulation.AggregateOptions{}, err
	}
	return simulation.AggregateOptions{
		Trial: simulation.TrialOptions{
			MaxSize:             c.Accuracy.MaxSize,
			Step:                step,
			Precision:           precision,
			DivergenceThreshold: c.Accuracy.DivergenceThreshold,
		},
		NumTrials:   c.Accuracy.Trials,
		Parallelism: c.Accuracy.Parallelism,
	}, nil
}

// SetDefaults registers every key of d so that environment overrides apply
// even when no config file or flag mentions the key.
func SetDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("metricsAddr", d.MetricsAddr)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("estimators", d.Estimators)
	v.SetDefault("precisions", d.Precisions)
	v.SetDefault("accuracy.maxSize", d.Accuracy.MaxSize)
	v.SetDefault("accuracy.step", d.Accuracy.Step)
	v.SetDefault("accuracy.trials", d.Accuracy.Trials)
	v.SetDefault("accuracy.parallelism", d.Accuracy.Parallelism)
	v.SetDefault("accuracy.divergenceThreshold", d.Accuracy.DivergenceThreshold)
	v.SetDefault("accuracy.outputDir", d.Accuracy.OutputDir)
	v.SetDefault("perf.workers", d.Perf.Workers)
	v.SetDefault("perf.insertOps", d.Perf.InsertOps)
	v.SetDefault("perf.queryOps", d.Perf.QueryOps)
	v.SetDefault("perf.seed", d.Perf.Seed)
	v.SetDefault("bias.runs", d.Bias.Runs)
	v.SetDefault("bias.maxCardinality", d.Bias.MaxCardinality)
	v.SetDefault("bias.seed", d.Bias.Seed)
}

// Load merges defaults, the optional config file, HLLEVAL_* environment
// variables and any flags already bound to v, then validates the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v, NewDefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfigFile, "%s: %v", cfgFile, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
