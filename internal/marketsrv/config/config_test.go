package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	require.NoError(t, LoadConfig(""))
	cfg := Config()
	assert.Equal(t, "8480", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Mode)
	assert.True(t, cfg.Ledger.AnchoringEnabled)
	assert.True(t, cfg.Reconcile.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	content := `
[server]
port = "9000"
auth_secret = "s3cret"

[db]
host = "dbhost"
port = 5433
name = "market"
user = "svc"
password = "pw"
sslmode = "require"

[storage]
mode = "pin"
pin_endpoint = "http://pinner:9094"

[ledger]
anchoring_enabled = false
wallet_timeout = "90s"

[reconcile]
enabled = false
`
	file := filepath.Join(t.TempDir(), "veristreamsrv.conf")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	require.NoError(t, LoadConfig(file))
	t.Cleanup(func() { _ = LoadConfig("") })

	cfg := Config()
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.AuthSecret)
	assert.Contains(t, cfg.DB.DSN(), "host=dbhost")
	assert.Contains(t, cfg.DB.DSN(), "sslmode=require")
	assert.Equal(t, "pin", cfg.Storage.Mode)
	assert.False(t, cfg.Ledger.AnchoringEnabled)
	assert.Equal(t, "90s", cfg.Ledger.WalletTimeout)
	assert.False(t, cfg.Reconcile.Enabled)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("3s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("bogus", time.Minute))
}
