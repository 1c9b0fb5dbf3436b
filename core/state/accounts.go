package state

import (
	"math/big"

	"contentledger/core/types"
)

type storedAccount struct {
	Balance *big.Int
	Nonce   uint64
}

// GetAccount loads the account stored for the address. Unknown addresses
// read as fresh zero-balance accounts; entities are created lazily on
// first write.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.KVGet(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	account := &types.Account{Balance: big.NewInt(0), Nonce: stored.Nonce}
	if stored.Balance != nil {
		account.Balance = new(big.Int).Set(stored.Balance)
	}
	return account, nil
}

// PutAccount persists the account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	stored := storedAccount{Balance: big.NewInt(0)}
	if account != nil {
		stored.Nonce = account.Nonce
		if account.Balance != nil {
			stored.Balance = new(big.Int).Set(account.Balance)
		}
	}
	return m.KVPut(accountKey(addr), &stored)
}
