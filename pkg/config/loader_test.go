package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/pkg/config"
)

type serverConfig struct {
	Host  string   `env:"TEST_SERVER_HOST" envDefault:"localhost"`
	Port  int      `env:"TEST_SERVER_PORT" envDefault:"8080"`
	Tags  []string `env:"TEST_SERVER_TAGS" envSeparator:","`
	Token string   `env:"TEST_SERVER_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("parses environment into struct", func(t *testing.T) {
		t.Setenv("TEST_SERVER_HOST", "0.0.0.0")
		t.Setenv("TEST_SERVER_PORT", "9090")
		t.Setenv("TEST_SERVER_TAGS", "api,billing")
		t.Setenv("TEST_SERVER_TOKEN", "secret")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "0.0.0.0", cfg.Host)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, []string{"api", "billing"}, cfg.Tags)
		assert.Equal(t, "secret", cfg.Token)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("TEST_SERVER_TOKEN", "secret")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg struct {
			Missing string `env:"TEST_DEFINITELY_UNSET_VAR,required"`
		}
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		var cfg struct {
			Missing string `env:"TEST_ANOTHER_UNSET_VAR,required"`
		}
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("non-existent file", func(t *testing.T) {
		require.Error(t, config.LoadEnv("testdata/does-not-exist.env"))
	})
}
