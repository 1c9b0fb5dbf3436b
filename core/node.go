package core

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"contentledger/config"
	"contentledger/core/state"
	"contentledger/core/types"
	"contentledger/native/content"
	"contentledger/observability/metrics"
	"contentledger/storage"
)

// VaultAddress is the module-owned holding account that accumulates
// purchase funds and retained platform fees. Derived from a fixed label so
// it can never collide with a caller-controlled key.
var VaultAddress = moduleAddress("contentledger/module/vault")

func moduleAddress(label string) [20]byte {
	sum := sha256.Sum256([]byte(label))
	var addr [20]byte
	copy(addr[:], sum[12:])
	return addr
}

// Node owns the database, the state manager, and the logical block
// sequence. Every state-changing operation runs as one atomic transaction:
// stateMu serializes calls, so one call fully applies before the next is
// observed, and each call occupies its own block.
type Node struct {
	db      storage.Database
	manager *state.Manager
	events  *eventTail
	metrics *metrics.ContentMetrics
	logger  *slog.Logger

	stateMu sync.Mutex
	height  uint64
}

// NewNode opens the ledger over the supplied database, applying the genesis
// allocation and administrative seed on first start.
func NewNode(db storage.Database, cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("core: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Node{
		db:      db,
		manager: state.NewManager(db),
		events:  newEventTail(),
		metrics: metrics.Content(),
		logger:  logger,
	}
	if height, ok, err := n.manager.HeightGet(); err != nil {
		return nil, err
	} else if ok {
		n.height = height
	}
	if err := n.applyGenesis(cfg); err != nil {
		return nil, err
	}
	n.metrics.SetBlockHeight(n.height)
	return n, nil
}

func (n *Node) applyGenesis(cfg *config.Config) error {
	applied, err := n.manager.GenesisApplied()
	if err != nil {
		return err
	}
	if !applied {
		allocs, err := cfg.Allocations()
		if err != nil {
			return err
		}
		for addr, amount := range allocs {
			account, err := n.manager.GetAccount(addr[:])
			if err != nil {
				return err
			}
			account.Balance = new(big.Int).Set(amount)
			if err := n.manager.PutAccount(addr[:], account); err != nil {
				return err
			}
		}
		if err := n.manager.MarkGenesisApplied(); err != nil {
			return err
		}
		n.logger.Info("genesis allocation applied", "accounts", len(allocs))
	}
	admin, err := cfg.AdministratorAddress()
	if err != nil {
		return err
	}
	engine := n.newContentEngine()
	seeded, err := engine.InitializeAdministration(admin, cfg.CommissionPermille)
	if err != nil {
		return err
	}
	if seeded {
		n.logger.Info("administration seeded", "commissionPermille", cfg.CommissionPermille)
	}
	return nil
}

func (n *Node) newContentEngine() *content.Engine {
	engine := content.NewEngine()
	engine.SetState(n.manager)
	engine.SetEmitter(n.events)
	engine.SetVault(VaultAddress)
	engine.SetBlockFunc(func() uint64 { return n.height })
	return engine
}

// advanceBlock appends the next block to the sequence. The transaction
// about to run observes the advanced height; a rejected transaction still
// occupies its block.
func (n *Node) advanceBlock() error {
	n.height++
	if err := n.manager.HeightPut(n.height); err != nil {
		return err
	}
	n.metrics.SetBlockHeight(n.height)
	return nil
}

func (n *Node) observeRejection(err error) {
	if err == nil {
		return
	}
	reason := "internal"
	if code, ok := content.CodeOf(err); ok {
		reason = fmt.Sprintf("code_%d", code)
	}
	n.metrics.ObserveRejection(reason)
}

// RegisterContent registers or overwrites a content record.
func (n *Node) RegisterContent(caller [20]byte, id uint64, price *big.Int, sharePermille uint32, metadataURI string, subscriptionEnabled bool, subscriptionPeriodBlocks uint64) (*content.Content, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return nil, err
	}
	engine := n.newContentEngine()
	record, err := engine.Register(caller, id, price, sharePermille, metadataURI, subscriptionEnabled, subscriptionPeriodBlocks)
	if err != nil {
		n.observeRejection(err)
		return nil, err
	}
	n.metrics.ObserveRegistration()
	return record, nil
}

// PurchaseContent executes a purchase for the buyer.
func (n *Node) PurchaseContent(buyer [20]byte, contentID uint64) (*content.PurchaseRecord, *content.RevenueSplit, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return nil, nil, err
	}
	engine := n.newContentEngine()
	record, split, err := engine.Purchase(buyer, contentID)
	if err != nil {
		n.observeRejection(err)
		return nil, nil, err
	}
	n.metrics.ObservePurchase()
	return record, split, nil
}

// TerminatePurchase ends the caller's purchase of the content.
func (n *Node) TerminatePurchase(caller [20]byte, contentID uint64) (*content.PurchaseRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return nil, err
	}
	engine := n.newContentEngine()
	record, err := engine.Terminate(caller, contentID)
	if err != nil {
		n.observeRejection(err)
		return nil, err
	}
	n.metrics.ObserveTermination()
	return record, nil
}

// WithdrawEarnings pays out the caller's accumulated creator earnings.
func (n *Node) WithdrawEarnings(caller [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return nil, err
	}
	engine := n.newContentEngine()
	amount, err := engine.Withdraw(caller)
	if err != nil {
		n.observeRejection(err)
		return nil, err
	}
	n.metrics.ObserveWithdrawal()
	return amount, nil
}

// SetCommissionRate updates the platform permille rate. Administrator only.
func (n *Node) SetCommissionRate(caller [20]byte, permille uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return err
	}
	engine := n.newContentEngine()
	if err := engine.SetCommission(caller, permille); err != nil {
		n.observeRejection(err)
		return err
	}
	return nil
}

// TransferAdministration hands administrative control to a new identity.
func (n *Node) TransferAdministration(caller [20]byte, next [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := n.advanceBlock(); err != nil {
		return err
	}
	engine := n.newContentEngine()
	if err := engine.TransferAdministration(caller, next); err != nil {
		n.observeRejection(err)
		return err
	}
	return nil
}

// GetContent returns the stored content record.
func (n *Node) GetContent(contentID uint64) (*content.Content, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().ContentInfo(contentID)
}

// GetPurchase returns the stored purchase record for (buyer, content).
func (n *Node) GetPurchase(buyer [20]byte, contentID uint64) (*content.PurchaseRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().PurchaseInfo(buyer, contentID)
}

// GetCreatorBalance returns the creator's withdrawable earnings.
func (n *Node) GetCreatorBalance(creator [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().CreatorBalance(creator)
}

// IsAccessible evaluates the access predicate at the current height.
func (n *Node) IsAccessible(buyer [20]byte, contentID uint64) (bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().IsAccessible(buyer, contentID)
}

// GetAccount returns the account stored for the address.
func (n *Node) GetAccount(addr [20]byte) (*types.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.manager.GetAccount(addr[:])
}

// Administrator returns the current administrative identity.
func (n *Node) Administrator() ([20]byte, bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().Administrator()
}

// Commission returns the current platform permille rate.
func (n *Node) Commission() (uint32, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newContentEngine().Commission()
}

// Height returns the current logical block height.
func (n *Node) Height() uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.height
}

// Events returns up to limit most recent ledger events, newest last.
func (n *Node) Events(limit int) []*types.Event {
	return n.events.Tail(limit)
}
