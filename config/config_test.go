package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"contentledger/crypto"
)

func bech32Addr(last byte) string {
	var raw [20]byte
	raw[19] = last
	return crypto.NewAddress(crypto.Prefix, raw).String()
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, defaultRPCAddress, cfg.RPCAddress)
	require.Equal(t, defaultNetwork, cfg.NetworkName)
	require.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	require.NotNil(t, cfg.GenesisAlloc)

	// The generated file loads back cleanly.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, reloaded.RPCAddress)
}

func TestLoadParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	admin := bech32Addr(0x01)
	funded := bech32Addr(0x02)

	body := `RPCAddress = "127.0.0.1:9900"
NetworkName = "cml-test"
Environment = "test"
Administrator = "` + admin + `"
CommissionPermille = 150

[GenesisAlloc]
"` + funded + `" = "1000000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9900", cfg.RPCAddress)
	require.Equal(t, uint32(150), cfg.CommissionPermille)

	adminAddr, err := cfg.AdministratorAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), adminAddr[19])

	allocs, err := cfg.Allocations()
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	for addr, amount := range allocs {
		require.Equal(t, byte(0x02), addr[19])
		require.Equal(t, "1000000", amount.String())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{CommissionPermille: 1001}
	require.Error(t, cfg.Validate())

	cfg = &Config{Administrator: "nonsense"}
	require.Error(t, cfg.Validate())

	cfg = &Config{GenesisAlloc: map[string]string{bech32Addr(0x01): "-5"}}
	require.Error(t, cfg.Validate())

	cfg = &Config{GenesisAlloc: map[string]string{"junk": "10"}}
	require.Error(t, cfg.Validate())

	cfg = &Config{
		Administrator:      bech32Addr(0x01),
		CommissionPermille: 1000,
		GenesisAlloc:       map[string]string{bech32Addr(0x02): "0"},
	}
	require.NoError(t, cfg.Validate())
}
