package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/dfleischhacker/spart/internal/semantic"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type EvaluationConfig struct {
	Semantic            string  `toml:"semantic" validate:"required,semantic"`
	DeleteIndividuals   bool    `toml:"delete_individuals"`
	ConfidenceThreshold float64 `toml:"confidence_threshold" validate:"gte=0,lte=1"`
}

type ClosureConfig struct {
	Workers int `toml:"workers" validate:"gte=1,lte=512"`
	// Timeout is a Go duration string such as "90s"; empty disables it.
	Timeout string `toml:"timeout" validate:"omitempty,duration"`
}

// TimeoutDuration parses Timeout. Load has already rejected malformed values.
func (c ClosureConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
	// AllowPaths lets API clients name server-side files.
	AllowPaths bool `toml:"allow_paths"`
}

type MemgraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri" validate:"required_if=Enabled true"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

type BatchConfig struct {
	ResultsFile   string   `toml:"results_file" validate:"required"`
	Parallel      int      `toml:"parallel" validate:"gte=1,lte=64"`
	Blacklist     []string `toml:"blacklist"`
	OntologyGlob  string   `toml:"ontology_glob"`
	ReferenceGlob string   `toml:"reference_glob"`
	AlignmentGlob string   `toml:"alignment_glob"`
}

type Config struct {
	Evaluation EvaluationConfig `toml:"evaluation"`
	Closure    ClosureConfig    `toml:"closure"`
	Server     ServerConfig     `toml:"server"`
	Memgraph   MemgraphConfig   `toml:"memgraph"`
	Log        LogConfig        `toml:"log"`
	Batch      BatchConfig      `toml:"batch"`
}

// Default is the configuration used when no file is given. File values are
// decoded on top of it, so a file only needs the keys it changes.
func Default() *Config {
	return &Config{
		Evaluation: EvaluationConfig{
			Semantic:          "natural",
			DeleteIndividuals: true,
		},
		Closure:  ClosureConfig{Workers: 1},
		Server:   ServerConfig{Addr: ":8080"},
		Memgraph: MemgraphConfig{URI: "bolt://localhost:7687"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Batch: BatchConfig{
			ResultsFile: "results.xml",
			Parallel:    1,
		},
	}
}

// Load reads path over the defaults, applies SPART_* environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SPART_SEMANTIC", &c.Evaluation.Semantic)
	str("SPART_CLOSURE_TIMEOUT", &c.Closure.Timeout)
	str("SPART_SERVER_ADDR", &c.Server.Addr)
	str("SPART_MEMGRAPH_URI", &c.Memgraph.URI)
	str("SPART_MEMGRAPH_USER", &c.Memgraph.User)
	str("SPART_MEMGRAPH_PASSWORD", &c.Memgraph.Password)
	str("SPART_LOG_LEVEL", &c.Log.Level)
	str("SPART_LOG_FORMAT", &c.Log.Format)
	str("SPART_RESULTS_FILE", &c.Batch.ResultsFile)

	if v, ok := lookup("SPART_CONFIDENCE_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SPART_CONFIDENCE_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		c.Evaluation.ConfidenceThreshold = f
	}
	if v, ok := lookup("SPART_CLOSURE_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SPART_CLOSURE_WORKERS: %v", ErrInvalidConfig, err)
		}
		c.Closure.Workers = n
	}
	for key, dst := range map[string]*bool{
		"SPART_DELETE_INDIVIDUALS": &c.Evaluation.DeleteIndividuals,
		"SPART_MEMGRAPH_ENABLED":   &c.Memgraph.Enabled,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = b
		}
	}
	return nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("semantic", func(fl validator.FieldLevel) bool {
		_, ok := semantic.Canonical(fl.Field().String())
		return ok
	})
	validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
}

// Validate reports every failing field in one error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// SemanticOptions maps the evaluation and closure sections onto closure
// options. Logger, oracle and metrics are left to the caller. An evaluator
// built from them uses ConfidenceThreshold as its default for evaluation
// alignments only.
func (c *Config) SemanticOptions() semantic.Options {
	opts := semantic.DefaultOptions()
	opts.DeleteIndividuals = c.Evaluation.DeleteIndividuals
	opts.ConfidenceThreshold = c.Evaluation.ConfidenceThreshold
	opts.Workers = c.Closure.Workers
	opts.Timeout = c.Closure.TimeoutDuration()
	return opts
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
