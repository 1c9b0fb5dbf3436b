package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"contentledger/config"
	"contentledger/crypto"
	"contentledger/native/content"
	"contentledger/storage"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func bech32Addr(addr [20]byte) string {
	return crypto.NewAddress(crypto.Prefix, addr).String()
}

func testConfig(admin, funded [20]byte) *config.Config {
	return &config.Config{
		RPCAddress:         "127.0.0.1:0",
		DataDir:            "",
		NetworkName:        "cml-test",
		Administrator:      bech32Addr(admin),
		CommissionPermille: 100,
		GenesisAlloc: map[string]string{
			bech32Addr(funded): "10000",
		},
	}
}

func TestNodeGenesisAndPurchaseFlow(t *testing.T) {
	admin := testAddr(0x01)
	buyer := testAddr(0x10)
	creator := testAddr(0x02)
	db := storage.NewMemDB()
	defer db.Close()

	node, err := NewNode(db, testConfig(admin, buyer), nil)
	require.NoError(t, err)

	account, err := node.GetAccount(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_000), account.Balance)

	storedAdmin, ok, err := node.Administrator()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, admin, storedAdmin)
	rate, err := node.Commission()
	require.NoError(t, err)
	require.Equal(t, uint32(100), rate)

	registered, err := node.RegisterContent(creator, 1, big.NewInt(1_000), 900, "uri", true, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(1), registered.RegisteredAtBlock)

	record, split, err := node.PurchaseContent(buyer, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), record.PurchasedAtBlock)
	require.Equal(t, uint64(52), record.SubscriptionEndBlock)
	require.Equal(t, "900", split.CreatorEarnings.String())

	accessible, err := node.IsAccessible(buyer, 1)
	require.NoError(t, err)
	require.True(t, accessible)

	balance, err := node.GetCreatorBalance(creator)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), balance)

	amount, err := node.WithdrawEarnings(creator)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), amount)

	vault, err := node.GetAccount(VaultAddress)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), vault.Balance, "vault retains only the platform fee")

	require.Equal(t, uint64(3), node.Height(), "each state-changing call occupies one block")

	events := node.Events(0)
	require.NotEmpty(t, events)
	require.Equal(t, content.EventTypeEarningsWithdrawn, events[len(events)-1].Type)
}

func TestNodeRejectedCallsStillAdvanceBlocks(t *testing.T) {
	admin := testAddr(0x01)
	buyer := testAddr(0x10)
	db := storage.NewMemDB()
	defer db.Close()

	node, err := NewNode(db, testConfig(admin, buyer), nil)
	require.NoError(t, err)

	_, _, err = node.PurchaseContent(buyer, 404)
	require.ErrorIs(t, err, content.ErrContentNotFound)
	require.Equal(t, uint64(1), node.Height())
}

func TestNodeRestartResumesHeightAndSkipsGenesis(t *testing.T) {
	admin := testAddr(0x01)
	buyer := testAddr(0x10)
	db := storage.NewMemDB()
	defer db.Close()

	cfg := testConfig(admin, buyer)
	node, err := NewNode(db, cfg, nil)
	require.NoError(t, err)

	_, err = node.RegisterContent(admin, 1, big.NewInt(100), 500, "uri", false, 0)
	require.NoError(t, err)
	record, _, err := node.PurchaseContent(buyer, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), record.PurchasedAtBlock)

	spent, err := node.GetAccount(buyer)
	require.NoError(t, err)

	// Restart over the same database with a richer allocation: genesis must
	// not re-fund, heights must not rewind.
	cfg.GenesisAlloc[bech32Addr(buyer)] = "999999"
	restarted, err := NewNode(db, cfg, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), restarted.Height())

	account, err := restarted.GetAccount(buyer)
	require.NoError(t, err)
	require.Equal(t, spent.Balance, account.Balance)

	// Administration survives too; the restart config cannot reseed it.
	storedAdmin, ok, err := restarted.Administrator()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, admin, storedAdmin)

	next, err := restarted.RegisterContent(admin, 2, big.NewInt(100), 500, "uri", false, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), next.RegisteredAtBlock)
}

func TestNodeAdministration(t *testing.T) {
	admin := testAddr(0x01)
	next := testAddr(0x02)
	db := storage.NewMemDB()
	defer db.Close()

	node, err := NewNode(db, testConfig(admin, testAddr(0x10)), nil)
	require.NoError(t, err)

	require.ErrorIs(t, node.SetCommissionRate(next, 200), content.ErrUnauthorized)
	require.NoError(t, node.SetCommissionRate(admin, 200))
	require.NoError(t, node.TransferAdministration(admin, next))
	require.ErrorIs(t, node.SetCommissionRate(admin, 300), content.ErrUnauthorized)
	require.NoError(t, node.SetCommissionRate(next, 300))

	rate, err := node.Commission()
	require.NoError(t, err)
	require.Equal(t, uint32(300), rate)
}
