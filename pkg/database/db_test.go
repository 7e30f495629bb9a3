package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSessionParams(t *testing.T) {
	t.Run("no settings leaves dsn untouched", func(t *testing.T) {
		dsn, err := withSessionParams("postgres://u:p@h/db", "", "")
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@h/db", dsn)
	})

	t.Run("url form gets query params", func(t *testing.T) {
		dsn, err := withSessionParams("postgres://u:p@h/db?sslmode=disable", "UTC", "UTF8")
		require.NoError(t, err)
		assert.Contains(t, dsn, "timezone=UTC")
		assert.Contains(t, dsn, "client_encoding=UTF8")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("key value form is quoted", func(t *testing.T) {
		dsn, err := withSessionParams("host=h dbname=db", "Asia/Shanghai", "")
		require.NoError(t, err)
		assert.Equal(t, "host=h dbname=db timezone='Asia/Shanghai'", dsn)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	cfg := ConfigFromEnv()
	assert.Contains(t, cfg.DSN, "/pancake")
	assert.Equal(t, 12, cfg.MaxConns)

	t.Setenv("DATABASE_MAX_CONNS", "nope")
	assert.Equal(t, 5, ConfigFromEnv().MaxConns)
}

func TestQuoteValue(t *testing.T) {
	assert.Equal(t, `'it\'s'`, quoteValue("it's"))
}
