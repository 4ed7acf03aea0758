package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  host: localhost
  user: canteen
  password: canteen
  database: canteen
`))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Gateway.SendBuffer)
	assert.Equal(t, 30*time.Second, cfg.Gateway.PingInterval)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestParseFullFile(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  host: db
  port: 6432
  user: canteen
  password: secret
  database: canteen
rabbitmq:
  enabled: true
  host: mq
  user: guest
  password: guest
server:
  port: 8080
  shutdown_timeout: 3s
  allowed_origins:
    - https://canteen.example
gateway:
  send_buffer: 4
  ping_interval: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, 6432, cfg.Database.Port)
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"https://canteen.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 4, cfg.Gateway.SendBuffer)
	assert.Equal(t, 5*time.Second, cfg.Gateway.PingInterval)
}

func TestParseValidation(t *testing.T) {
	_, err := Parse([]byte(`
rabbitmq:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
	assert.Contains(t, err.Error(), "rabbitmq.host is required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
