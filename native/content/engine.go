package content

import (
	"encoding/hex"
	"math"
	"math/big"

	"contentledger/core/events"
	"contentledger/core/types"
)

type engineState interface {
	ContentGet(id uint64) (*Content, bool, error)
	ContentPut(content *Content) error
	PurchaseGet(buyer [20]byte, contentID uint64) (*PurchaseRecord, bool, error)
	PurchasePut(record *PurchaseRecord) error
	EarningsGet(creator [20]byte) (*big.Int, bool, error)
	EarningsPut(creator [20]byte, balance *big.Int) error
	AdministratorGet() ([20]byte, bool, error)
	AdministratorPut(addr [20]byte) error
	CommissionGet() (uint32, bool, error)
	CommissionPut(permille uint32) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine wires the content monetization state transitions with persistence
// and event emission. Every public operation runs inside a single host
// transaction; the host serializes transactions, so the engine relies on
// write ordering rather than locks.
type Engine struct {
	state   engineState
	emitter events.Emitter
	blockFn func() uint64
	vault   [20]byte
}

// NewEngine constructs a content engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		blockFn: func() uint64 { return 0 },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetBlockFunc overrides the block height source. The height acts as the
// ledger's logical clock and must be monotonic across calls.
func (e *Engine) SetBlockFunc(fn func() uint64) {
	if fn == nil {
		e.blockFn = func() uint64 { return 0 }
		return
	}
	e.blockFn = fn
}

// SetVault configures the holding account that retains purchase funds and
// platform fees.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) currentBlock() uint64 {
	if e == nil || e.blockFn == nil {
		return 0
	}
	return e.blockFn()
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func formatUint(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}

// transfer moves amount from one account to the other, failing without any
// write when the payer's balance is short.
func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	// A funded self-transfer nets zero. Loading the account twice and
	// writing both copies would apply the credit on top of the unchanged
	// balance.
	if from == to {
		return nil
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// InitializeAdministration seeds the administrator and commission rate when
// none have been recorded yet. It reports whether the seed was applied.
func (e *Engine) InitializeAdministration(admin [20]byte, commissionPermille uint32) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	if commissionPermille > MaxPermille {
		return false, ErrInvalidPricing
	}
	if _, ok, err := e.state.AdministratorGet(); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}
	if err := e.state.AdministratorPut(admin); err != nil {
		return false, err
	}
	if err := e.state.CommissionPut(commissionPermille); err != nil {
		return false, err
	}
	return true, nil
}

// Register upserts a content record under the supplied id with the caller
// stamped as creator. Re-registration of an existing id overwrites every
// field, including the creator; no ownership check is enforced.
func (e *Engine) Register(caller [20]byte, id uint64, price *big.Int, sharePermille uint32, metadataURI string, subscriptionEnabled bool, subscriptionPeriodBlocks uint64) (*Content, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPricing
	}
	if sharePermille > MaxPermille {
		return nil, ErrInvalidPricing
	}
	if len(metadataURI) > MaxMetadataURILength {
		return nil, errMetadataTooLong
	}
	if subscriptionEnabled && subscriptionPeriodBlocks == 0 {
		return nil, ErrInvalidSubscriptionDuration
	}
	record := &Content{
		ID:                       id,
		Creator:                  caller,
		Price:                    new(big.Int).Set(price),
		CreatorSharePermille:     sharePermille,
		MetadataURI:              metadataURI,
		SubscriptionEnabled:      subscriptionEnabled,
		SubscriptionPeriodBlocks: subscriptionPeriodBlocks,
		RegisteredAtBlock:        e.currentBlock(),
	}
	if err := e.state.ContentPut(record); err != nil {
		return nil, err
	}
	e.emit(ContentRegisteredEvent(formatUint(id), hexAddr(caller), record.Price.String()))
	return record.Clone(), nil
}

// Purchase charges the buyer the full content price, credits the creator's
// earnings with their split, and records the purchase. The value transfer
// happens before any ledger write so a failed transfer leaves no state
// behind. The platform fee stays in the vault as the residual of
// price - creatorEarnings; no separate fee sweep exists.
func (e *Engine) Purchase(buyer [20]byte, contentID uint64) (*PurchaseRecord, *RevenueSplit, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if isZeroAddress(e.vault) {
		return nil, nil, errVaultNotSet
	}
	item, ok, err := e.state.ContentGet(contentID)
	if err != nil {
		return nil, nil, err
	}
	if !ok || item == nil {
		return nil, nil, ErrContentNotFound
	}
	rate, _, err := e.state.CommissionGet()
	if err != nil {
		return nil, nil, err
	}
	split := SplitRevenue(item.Price, rate)
	current := e.currentBlock()
	if existing, ok, err := e.state.PurchaseGet(buyer, contentID); err != nil {
		return nil, nil, err
	} else if ok && Accessible(existing, current) {
		return nil, nil, ErrDuplicatePurchase
	}
	if err := e.transfer(buyer, e.vault, item.Price); err != nil {
		return nil, nil, err
	}
	balance, ok, err := e.state.EarningsGet(item.Creator)
	if err != nil {
		return nil, nil, err
	}
	if !ok || balance == nil {
		balance = big.NewInt(0)
	}
	balance = new(big.Int).Add(balance, split.CreatorEarnings)
	if err := e.state.EarningsPut(item.Creator, balance); err != nil {
		return nil, nil, err
	}
	record := &PurchaseRecord{
		Buyer:            buyer,
		ContentID:        contentID,
		PurchasedAtBlock: current,
		Active:           true,
	}
	if item.SubscriptionEnabled {
		// Saturating add: an oversized period pins the window open
		// instead of wrapping it shut.
		end := current + item.SubscriptionPeriodBlocks
		if end < current {
			end = math.MaxUint64
		}
		record.SubscriptionEndBlock = end
	}
	if err := e.state.PurchasePut(record); err != nil {
		return nil, nil, err
	}
	e.emit(ContentPurchasedEvent(
		formatUint(contentID),
		hexAddr(buyer),
		item.Price.String(),
		split.PlatformFee.String(),
		split.CreatorEarnings.String(),
		formatUint(record.SubscriptionEndBlock),
	))
	result := split.Clone()
	return record.Clone(), &result, nil
}

// Terminate deactivates the caller's purchase and truncates any remaining
// subscription window to the current block. Terminating an already inactive
// record is rejected, not a no-op.
func (e *Engine) Terminate(caller [20]byte, contentID uint64) (*PurchaseRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.PurchaseGet(caller, contentID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPurchaseNotFound
	}
	if !record.Active {
		return nil, ErrPurchaseNotFound
	}
	record.Active = false
	record.SubscriptionEndBlock = e.currentBlock()
	if err := e.state.PurchasePut(record); err != nil {
		return nil, err
	}
	e.emit(PurchaseTerminatedEvent(formatUint(contentID), hexAddr(caller), formatUint(record.SubscriptionEndBlock)))
	return record.Clone(), nil
}

// Withdraw pays out the caller's accumulated earnings. The balance is
// zeroed before the transfer is issued, so a reentrant call inside the
// same logical snapshot observes zero available. If the vault transfer
// then fails the zeroed balance stands.
func (e *Engine) Withdraw(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if isZeroAddress(e.vault) {
		return nil, errVaultNotSet
	}
	balance, ok, err := e.state.EarningsGet(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoEarnings
	}
	if balance == nil || balance.Sign() == 0 {
		return nil, ErrInsufficientBalance
	}
	amount := new(big.Int).Set(balance)
	if err := e.state.EarningsPut(caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	if vaultAcc.Balance.Cmp(amount) < 0 {
		return nil, errVaultUnderfunded
	}
	if err := e.transfer(e.vault, caller, amount); err != nil {
		return nil, err
	}
	e.emit(EarningsWithdrawnEvent(hexAddr(caller), amount.String()))
	return amount, nil
}

// SetCommission updates the platform's permille cut. Administrator only;
// the new rate is not retroactive for earnings already credited.
func (e *Engine) SetCommission(caller [20]byte, permille uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	admin, ok, err := e.state.AdministratorGet()
	if err != nil {
		return err
	}
	if !ok || admin != caller {
		return ErrUnauthorized
	}
	if permille > MaxPermille {
		return ErrInvalidPricing
	}
	if err := e.state.CommissionPut(permille); err != nil {
		return err
	}
	e.emit(CommissionUpdatedEvent(hexAddr(caller), formatUint(uint64(permille))))
	return nil
}

// TransferAdministration hands control to a new administrator. The new
// identity is not validated; transferring to an unreachable address is the
// current administrator's prerogative.
func (e *Engine) TransferAdministration(caller [20]byte, next [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	admin, ok, err := e.state.AdministratorGet()
	if err != nil {
		return err
	}
	if !ok || admin != caller {
		return ErrUnauthorized
	}
	if err := e.state.AdministratorPut(next); err != nil {
		return err
	}
	e.emit(AdminTransferredEvent(hexAddr(caller), hexAddr(next)))
	return nil
}

// ContentInfo returns the stored content record.
func (e *Engine) ContentInfo(contentID uint64) (*Content, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	item, ok, err := e.state.ContentGet(contentID)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrContentNotFound
	}
	return item.Clone(), nil
}

// PurchaseInfo returns the stored purchase record for (buyer, content).
func (e *Engine) PurchaseInfo(buyer [20]byte, contentID uint64) (*PurchaseRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.PurchaseGet(buyer, contentID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPurchaseNotFound
	}
	return record.Clone(), nil
}

// CreatorBalance returns the withdrawable earnings for the creator. A
// creator that never earned reads as zero.
func (e *Engine) CreatorBalance(creator [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, ok, err := e.state.EarningsGet(creator)
	if err != nil {
		return nil, err
	}
	if !ok || balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// IsAccessible evaluates the access predicate for (buyer, content) at the
// current block. A missing purchase record reads as false; a missing
// content id is an error.
func (e *Engine) IsAccessible(buyer [20]byte, contentID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	if _, ok, err := e.state.ContentGet(contentID); err != nil {
		return false, err
	} else if !ok {
		return false, ErrContentNotFound
	}
	record, ok, err := e.state.PurchaseGet(buyer, contentID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return Accessible(record, e.currentBlock()), nil
}

// Administrator returns the current administrative identity.
func (e *Engine) Administrator() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.AdministratorGet()
}

// Commission returns the current platform permille rate.
func (e *Engine) Commission() (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	rate, _, err := e.state.CommissionGet()
	return rate, err
}
