package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := Load("")
		require.NoError(t, err)
		assert.True(t, s.Engine.Cache)
		assert.Equal(t, DefaultTraceLimit, s.Engine.TraceLimit)
		assert.Equal(t, DefaultGrammar, s.Parse.Grammar)
		assert.True(t, s.Parse.RequireFull)
		assert.Equal(t, hclog.Warn, s.LogLevel())
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "engine:\n  cache: false\n  trace_limit: 4\nparse:\n  grammar: csv\nlog:\n  level: debug\n")
		s, err := Load(path)
		require.NoError(t, err)
		assert.False(t, s.Engine.Cache)
		assert.Equal(t, 4, s.Engine.TraceLimit)
		assert.Equal(t, "csv", s.Parse.Grammar)
		assert.Equal(t, hclog.Debug, s.LogLevel())
		assert.True(t, s.Tree.ElideTransient, "keys left out keep their defaults")
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		path := writeFile(t, "engine:\n  debug: false\n")
		t.Setenv("COMBI_ENGINE_DEBUG", "true")
		t.Setenv("COMBI_METRICS_NAMESPACE", "parser")
		s, err := Load(path)
		require.NoError(t, err)
		assert.True(t, s.Engine.Debug)
		assert.Equal(t, "parser", s.Metrics.Namespace)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		for _, test := range []struct {
			content  string
			expected error
		}{
			{"engine:\n  trace_limit: -1\n", ErrInvalidTraceLimit},
			{"log:\n  level: loud\n", ErrInvalidLogLevel},
			{"parse:\n  grammar: ''\n", ErrMissingGrammar},
			{"metrics:\n  namespace: ''\n", ErrMissingNamespace},
		} {
			_, err := Load(writeFile(t, test.content))
			assert.ErrorIs(t, err, test.expected)
		}
	})
}

func TestConfig(t *testing.T) {
	s, err := Load(writeFile(t, "engine:\n  cache: false\ntree:\n  elide_transient: false\n"))
	require.NoError(t, err)
	cfg := s.Config()
	assert.False(t, cfg.GetBool("engine.cache"))
	assert.False(t, cfg.GetBool("tree.elide_transient"))
	assert.True(t, cfg.GetBool("parse.require_full"))
	assert.Equal(t, DefaultTraceLimit, cfg.GetInt("engine.trace_limit"))
}

func TestYAML(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	out, err := s.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "trace_limit: 16\n")

	s2, err := Load(writeFile(t, string(out)))
	require.NoError(t, err)
	assert.Equal(t, s, s2)
}
