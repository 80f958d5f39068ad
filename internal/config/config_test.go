package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalYAML = `
payment:
  base_url: https://api.processor.example/v1
renderer:
  base_url: http://renderer:3000
mail:
  host: smtp.example.com
`

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("PROCESSOR_SECRET", "sk_test")
	t.Setenv("WEBHOOK_SECRET", "whsec_test")
	t.Setenv("MAIL_PASS", "hunter2")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sk_test", cfg.Payment.Secret)
	assert.Equal(t, "whsec_test", cfg.Webhook.Secret)
	assert.Equal(t, "hunter2", cfg.Mail.Password)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)
	assert.Equal(t, "memory", cfg.Claims.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.Claims.TTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROCESSOR_SECRET", "sk_test")
	t.Setenv("WEBHOOK_SECRET", "whsec_test")
	t.Setenv("PORT", "9090")
	t.Setenv("MAIL_HOST", "smtp.override.example")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("MAIL_SECURE", "true")
	t.Setenv("MAIL_USER", "robot@medipause.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "smtp.override.example", cfg.Mail.Host)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.True(t, cfg.Mail.Secure)
	assert.Equal(t, "robot@medipause.com", cfg.Mail.User)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadFailsWithoutSecrets(t *testing.T) {
	t.Setenv("PROCESSOR_SECRET", "")
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := Load(writeConfig(t, minimalYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCESSOR_SECRET")
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("PROCESSOR_SECRET", "sk_test")
	t.Setenv("WEBHOOK_SECRET", "whsec_test")

	_, err := Load(writeConfig(t, minimalYAML+`
claims:
  driver: etcd
server:
  port: 99999
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claims.driver")
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
