package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	opts := cfg.SemanticOptions()
	assert.True(t, opts.DeleteIndividuals)
	assert.Equal(t, 1, opts.Workers)
	assert.Zero(t, opts.Timeout)
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[evaluation]
semantic = "Pragmatic Semantic"
delete_individuals = false
confidence_threshold = 0.25

[closure]
workers = 8
timeout = "90s"

[memgraph]
enabled = true
uri = "bolt://graph:7687"

[batch]
blacklist = ["aml-cmt-ekaw"]
alignment_glob = "*-*-*.rdf"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Pragmatic Semantic", cfg.Evaluation.Semantic)
	assert.False(t, cfg.Evaluation.DeleteIndividuals)
	assert.Equal(t, 90*time.Second, cfg.Closure.TimeoutDuration())
	assert.True(t, cfg.Memgraph.Enabled)
	assert.Equal(t, "bolt://graph:7687", cfg.Memgraph.URI)
	assert.Equal(t, []string{"aml-cmt-ekaw"}, cfg.Batch.Blacklist)
	assert.Equal(t, "results.xml", cfg.Batch.ResultsFile)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	opts := cfg.SemanticOptions()
	assert.Equal(t, 0.25, opts.ConfidenceThreshold)
	assert.Equal(t, 8, opts.Workers)
	assert.Equal(t, 90*time.Second, opts.Timeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPART_SEMANTIC", "null")
	t.Setenv("SPART_CLOSURE_WORKERS", "4")
	t.Setenv("SPART_CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("SPART_MEMGRAPH_ENABLED", "true")
	t.Setenv("SPART_LOG_FORMAT", "json")

	cfg, err := Load(writeConfig(t, "[closure]\nworkers = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "null", cfg.Evaluation.Semantic)
	assert.Equal(t, 4, cfg.Closure.Workers)
	assert.Equal(t, 0.5, cfg.Evaluation.ConfidenceThreshold)
	assert.True(t, cfg.Memgraph.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverrideErrors(t *testing.T) {
	for key, value := range map[string]string{
		"SPART_CLOSURE_WORKERS":      "many",
		"SPART_CONFIDENCE_THRESHOLD": "high",
		"SPART_DELETE_INDIVIDUALS":   "perhaps",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown semantic", "[evaluation]\nsemantic = \"fuzzy\"\n", "Config.Evaluation.Semantic"},
		{"threshold range", "[evaluation]\nconfidence_threshold = 1.5\n", "Config.Evaluation.ConfidenceThreshold"},
		{"workers", "[closure]\nworkers = 0\n", "Config.Closure.Workers"},
		{"timeout", "[closure]\ntimeout = \"soon\"\n", "Config.Closure.Timeout"},
		{"log level", "[log]\nlevel = \"loud\"\n", "Config.Log.Level"},
		{"memgraph uri", "[memgraph]\nenabled = true\nuri = \"\"\n", "Config.Memgraph.URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "[evaluation\n"))
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	assert.NotNil(t, cfg.NewLogger())
	cfg.Log.Format = "json"
	assert.NotNil(t, cfg.NewLogger())
}
