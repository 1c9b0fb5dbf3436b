package types

import "math/big"

// Account holds the spendable balance tracked for a 20-byte address. The
// nonce counts state-changing operations submitted by the address and exists
// for replay diagnostics only; the ledger core does not enforce ordering on
// it.
type Account struct {
	Balance *big.Int
	Nonce   uint64
}

// NewAccount returns an account with a zero balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}
