package general

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	g, err := NewGeneral(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(137), g.Node.ChainID)
	assert.Equal(t, "accumulate", g.Forwarder.AllowancePolicy)
	assert.Equal(t, time.Minute, g.Forwarder.DeadlineSlack)
	assert.Equal(t, "info", g.Log.Level)
	assert.Empty(t, g.PostgresDSN())

	router, err := g.RouterAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"), router)
}

func TestFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
node:
  endpoint: ws://node:8546
  chain_id: 80001
forwarder:
  allowance_policy: exact
  deadline_slack: 90s
pgsql:
  host: db
  user: forwarder
  dbname: journal
`), 0o600))
	t.Setenv("FORWARDER_NODE_ENDPOINT", "ws://override:8546")
	t.Setenv("FORWARDER_FORWARDER_REFUND_UNUSED", "true")

	g, err := NewGeneral(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "ws://override:8546", g.Node.Endpoint)
	assert.Equal(t, int64(80001), g.Node.ChainID)
	assert.Equal(t, "exact", g.Forwarder.AllowancePolicy)
	assert.True(t, g.Forwarder.RefundUnused)
	assert.Equal(t, 90*time.Second, g.Forwarder.DeadlineSlack)
	assert.Equal(t, "host=db port=5432 user=forwarder password= dbname=journal sslmode=disable", g.PostgresDSN())
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FORWARDER_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("FORWARDER_LOG_LEVEL", "")
	os.Unsetenv("FORWARDER_LOG_LEVEL")

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	g, err := NewGeneral(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "debug", g.Log.Level)
}

func TestAddressesAndKey(t *testing.T) {
	g := &General{Dex: DexConfig{Router: "not-an-address"}}
	_, err := g.RouterAddress()
	assert.Error(t, err)

	_, err = g.PrivateKey()
	assert.Error(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	g.Node.PrivateKey = "0x" + common.Bytes2Hex(crypto.FromECDSA(key))
	parsed, err := g.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(parsed.PublicKey))
}

func TestSetupLogger(t *testing.T) {
	assert.NoError(t, SetupLogger("debug"))
	assert.Error(t, SetupLogger("loud"))
}
