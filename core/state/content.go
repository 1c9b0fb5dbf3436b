package state

import (
	"math/big"

	"contentledger/native/content"
)

type storedContent struct {
	ID                       uint64
	Creator                  [20]byte
	Price                    *big.Int
	CreatorSharePermille     uint32
	MetadataURI              string
	SubscriptionEnabled      bool
	SubscriptionPeriodBlocks uint64
	RegisteredAtBlock        uint64
}

type storedPurchase struct {
	Buyer                [20]byte
	ContentID            uint64
	PurchasedAtBlock     uint64
	SubscriptionEndBlock uint64
	Active               bool
}

// ContentGet loads the content record stored under the id.
func (m *Manager) ContentGet(id uint64) (*content.Content, bool, error) {
	var stored storedContent
	ok, err := m.KVGet(contentKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record := &content.Content{
		ID:                       stored.ID,
		Creator:                  stored.Creator,
		Price:                    big.NewInt(0),
		CreatorSharePermille:     stored.CreatorSharePermille,
		MetadataURI:              stored.MetadataURI,
		SubscriptionEnabled:      stored.SubscriptionEnabled,
		SubscriptionPeriodBlocks: stored.SubscriptionPeriodBlocks,
		RegisteredAtBlock:        stored.RegisteredAtBlock,
	}
	if stored.Price != nil {
		record.Price = new(big.Int).Set(stored.Price)
	}
	return record, true, nil
}

// ContentPut persists the content record under its id.
func (m *Manager) ContentPut(record *content.Content) error {
	if record == nil {
		return nil
	}
	stored := storedContent{
		ID:                       record.ID,
		Creator:                  record.Creator,
		Price:                    big.NewInt(0),
		CreatorSharePermille:     record.CreatorSharePermille,
		MetadataURI:              record.MetadataURI,
		SubscriptionEnabled:      record.SubscriptionEnabled,
		SubscriptionPeriodBlocks: record.SubscriptionPeriodBlocks,
		RegisteredAtBlock:        record.RegisteredAtBlock,
	}
	if record.Price != nil {
		stored.Price = new(big.Int).Set(record.Price)
	}
	return m.KVPut(contentKey(record.ID), &stored)
}

// PurchaseGet loads the purchase record for (buyer, content).
func (m *Manager) PurchaseGet(buyer [20]byte, contentID uint64) (*content.PurchaseRecord, bool, error) {
	var stored storedPurchase
	ok, err := m.KVGet(purchaseKey(buyer, contentID), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record := &content.PurchaseRecord{
		Buyer:                stored.Buyer,
		ContentID:            stored.ContentID,
		PurchasedAtBlock:     stored.PurchasedAtBlock,
		SubscriptionEndBlock: stored.SubscriptionEndBlock,
		Active:               stored.Active,
	}
	return record, true, nil
}

// PurchasePut persists the purchase record, overwriting any previous entry
// for the same (buyer, content) pair.
func (m *Manager) PurchasePut(record *content.PurchaseRecord) error {
	if record == nil {
		return nil
	}
	stored := storedPurchase{
		Buyer:                record.Buyer,
		ContentID:            record.ContentID,
		PurchasedAtBlock:     record.PurchasedAtBlock,
		SubscriptionEndBlock: record.SubscriptionEndBlock,
		Active:               record.Active,
	}
	return m.KVPut(purchaseKey(record.Buyer, record.ContentID), &stored)
}

// EarningsGet loads the creator's withdrawable balance.
func (m *Manager) EarningsGet(creator [20]byte) (*big.Int, bool, error) {
	balance := new(big.Int)
	ok, err := m.KVGet(earningsKey(creator), balance)
	if err != nil || !ok {
		return nil, false, err
	}
	return balance, true, nil
}

// EarningsPut persists the creator's withdrawable balance.
func (m *Manager) EarningsPut(creator [20]byte, balance *big.Int) error {
	if balance == nil {
		balance = big.NewInt(0)
	}
	return m.KVPut(earningsKey(creator), balance)
}

// AdministratorGet loads the process-wide administrator identity.
func (m *Manager) AdministratorGet() ([20]byte, bool, error) {
	var admin [20]byte
	ok, err := m.KVGet(paramsAdministratorKey, &admin)
	return admin, ok, err
}

// AdministratorPut persists the administrator identity.
func (m *Manager) AdministratorPut(addr [20]byte) error {
	return m.KVPut(paramsAdministratorKey, addr)
}

// CommissionGet loads the platform permille rate. An unset rate reads as
// zero.
func (m *Manager) CommissionGet() (uint32, bool, error) {
	var rate uint32
	ok, err := m.KVGet(paramsCommissionKey, &rate)
	return rate, ok, err
}

// CommissionPut persists the platform permille rate.
func (m *Manager) CommissionPut(permille uint32) error {
	return m.KVPut(paramsCommissionKey, permille)
}

// HeightGet loads the persisted block height.
func (m *Manager) HeightGet() (uint64, bool, error) {
	var height uint64
	ok, err := m.KVGet(chainHeightKey, &height)
	return height, ok, err
}

// HeightPut persists the block height.
func (m *Manager) HeightPut(height uint64) error {
	return m.KVPut(chainHeightKey, height)
}

// GenesisApplied reports whether the genesis allocation already ran.
func (m *Manager) GenesisApplied() (bool, error) {
	var applied bool
	ok, err := m.KVGet(genesisAppliedKey, &applied)
	if err != nil {
		return false, err
	}
	return ok && applied, nil
}

// MarkGenesisApplied records that the genesis allocation ran.
func (m *Manager) MarkGenesisApplied() error {
	return m.KVPut(genesisAppliedKey, true)
}
