// Package config loads the job configuration of the meansbands command from a
// YAML file overlaid by MEANSBANDS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/hpfilter"
	"github.com/aouyang1/go-meansbands/stats"
)

const EnvPrefix = "MEANSBANDS"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete job configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Job        JobConfig        `yaml:"job" envconfig:"JOB"`
	Bands      BandsConfig      `yaml:"bands" envconfig:"BANDS"`
	Population PopulationConfig `yaml:"population" envconfig:"POPULATION"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
}

// PathsConfig locates the inputs and outputs of a job
type PathsConfig struct {
	DrawsDir   string `yaml:"draws_dir" envconfig:"DRAWS_DIR" validate:"required"`
	Metadata   string `yaml:"metadata" envconfig:"METADATA" validate:"required"`
	Data       string `yaml:"data" envconfig:"DATA"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	Plots      bool   `yaml:"plots" envconfig:"PLOTS"`
	XLSX       bool   `yaml:"xlsx" envconfig:"XLSX"`
	MetricsOut string `yaml:"metrics_out" envconfig:"METRICS_OUT"`
}

// JobConfig selects what to compute
type JobConfig struct {
	InputType       string   `yaml:"input_type" envconfig:"INPUT_TYPE" validate:"required"`
	Class           string   `yaml:"class" envconfig:"CLASS" validate:"required"`
	Products        []string `yaml:"products" envconfig:"PRODUCTS" validate:"required,min=1"`
	Parallelization int      `yaml:"parallelization" envconfig:"PARALLELIZATION" validate:"gte=0"`
	FailurePolicy   string   `yaml:"failure_policy" envconfig:"FAILURE_POLICY" validate:"omitempty,oneof=abort skip"`
}

// BandsConfig configures the density bands
type BandsConfig struct {
	Levels   []float64 `yaml:"levels" envconfig:"LEVELS" validate:"omitempty,dive,gt=0,lt=1"`
	Minimize bool      `yaml:"minimize" envconfig:"MINIMIZE"`
}

// PopulationConfig locates population growth. An empty mnemonic means no
// population data is available.
type PopulationConfig struct {
	History  string  `yaml:"history" envconfig:"HISTORY"`
	Forecast string  `yaml:"forecast" envconfig:"FORECAST"`
	Mnemonic string  `yaml:"mnemonic" envconfig:"MNEMONIC"`
	Smooth   bool    `yaml:"smooth" envconfig:"SMOOTH"`
	HPLambda float64 `yaml:"hp_lambda" envconfig:"HP_LAMBDA" validate:"gte=0"`
}

// NewDefaultConfig returns the configuration used for fields not set in the
// file or environment.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Job: JobConfig{
			InputType:     "mode",
			Class:         "observable",
			Products:      []string{"forecast"},
			FailurePolicy: "abort",
		},
		Bands: BandsConfig{
			Levels: slices.Clone(stats.DefaultBandLevels),
		},
		Population: PopulationConfig{
			HPLambda: hpfilter.DefaultQuarterlyLambda,
		},
	}
}

// Load reads the YAML file at path when given, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open config file, %w", err)
		}
		defer file.Close()
		if err := Decode(file, cfg); err != nil {
			return nil, err
		}
	}

	// environment takes precedence over the file
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config from env, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML into cfg, keeping values the document does not set.
func Decode(r io.Reader, cfg *Config) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read config, %w", err)
	}
	if err := yaml.UnmarshalStrict(bytes, cfg); err != nil {
		return fmt.Errorf("unable to decode config, %w", err)
	}
	return nil
}

// Validate checks field constraints and that names parse.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s, %w", strings.Join(fields, "; "), ErrInvalidConfig)
		}
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	if _, err := c.Class(); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	if _, err := c.Products(); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	if c.Population.Mnemonic != "" && c.Population.History == "" && c.Population.Forecast == "" {
		return fmt.Errorf("population mnemonic without population tables, %w", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Class() (meansbands.Class, error) {
	return meansbands.ParseClass(c.Job.Class)
}

func (c *Config) Products() ([]meansbands.Product, error) {
	products := make([]meansbands.Product, 0, len(c.Job.Products))
	for _, name := range c.Job.Products {
		p, err := meansbands.ParseProduct(name)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// Options builds the means and bands options of the job.
func (c *Config) Options(logger *slog.Logger) (*meansbands.Options, error) {
	policy, err := meansbands.ParseFailurePolicy(c.Job.FailurePolicy)
	if err != nil {
		return nil, err
	}
	opt := meansbands.NewDefaultOptions()
	if len(c.Bands.Levels) > 0 {
		opt.DensityBands = slices.Clone(c.Bands.Levels)
	}
	opt.Minimize = c.Bands.Minimize
	opt.Parallelization = c.Job.Parallelization
	opt.FailurePolicy = policy
	opt.Logger = logger
	return opt, nil
}

// HPLambda returns the population smoothing parameter, nil when population
// growth is used as is.
func (c *Config) HPLambda() *float64 {
	if !c.Population.Smooth {
		return nil
	}
	lambda := c.Population.HPLambda
	return &lambda
}

// Logger builds a structured logger from the logging configuration.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	hopt := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopt))
	}
	return slog.New(slog.NewTextHandler(w, hopt))
}
