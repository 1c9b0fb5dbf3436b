package content

import "errors"

// Code identifies a terminal failure kind on the wire. The taxonomy is
// closed; every engine error maps to exactly one code.
type Code uint32

const (
	CodeUnauthorized                Code = 1
	CodeInvalidPricingParameters    Code = 2
	CodeDuplicatePurchase           Code = 3
	CodeContentNotFound             Code = 4
	CodeInsufficientBalance         Code = 5
	CodeSubscriptionExpired         Code = 6
	CodeInvalidSubscriptionDuration Code = 7
)

var (
	// ErrUnauthorized rejects administrative calls from non-administrators.
	ErrUnauthorized = errors.New("content engine: unauthorized")
	// ErrInvalidPricing rejects registrations and rate updates with an
	// out-of-range price or permille value.
	ErrInvalidPricing = errors.New("content engine: invalid pricing parameters")
	// ErrDuplicatePurchase rejects a purchase while the buyer's previous
	// purchase of the same content is still active.
	ErrDuplicatePurchase = errors.New("content engine: purchase already active")
	// ErrContentNotFound is returned when the content id has never been
	// registered.
	ErrContentNotFound = errors.New("content engine: content not found")
	// ErrPurchaseNotFound is returned when no active purchase record exists
	// for the caller. It shares CodeContentNotFound on the wire.
	ErrPurchaseNotFound = errors.New("content engine: purchase not found")
	// ErrNoEarnings is returned when the caller has no earnings record. It
	// shares CodeContentNotFound on the wire.
	ErrNoEarnings = errors.New("content engine: no earnings record")
	// ErrInsufficientBalance covers failed value transfers and zero-balance
	// withdrawals.
	ErrInsufficientBalance = errors.New("content engine: insufficient balance")
	// ErrSubscriptionExpired is reserved. No operation raises it; expiry is
	// reported by the access predicate returning false.
	ErrSubscriptionExpired = errors.New("content engine: subscription expired")
	// ErrInvalidSubscriptionDuration rejects subscription content registered
	// without a positive period.
	ErrInvalidSubscriptionDuration = errors.New("content engine: invalid subscription duration")

	errNilState         = errors.New("content engine: state not configured")
	errVaultNotSet      = errors.New("content engine: holding vault not configured")
	errVaultUnderfunded = errors.New("content engine: holding vault underfunded")
	errMetadataTooLong  = errors.New("content engine: metadata uri exceeds bound")
)

// CodeOf maps an engine error to its wire code. Distinct internal causes
// collapse onto one code where the external contract reuses it (missing
// content, missing purchase, and missing earnings all surface as
// CodeContentNotFound).
func CodeOf(err error) (Code, bool) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized, true
	case errors.Is(err, ErrInvalidPricing), errors.Is(err, errMetadataTooLong):
		return CodeInvalidPricingParameters, true
	case errors.Is(err, ErrDuplicatePurchase):
		return CodeDuplicatePurchase, true
	case errors.Is(err, ErrContentNotFound), errors.Is(err, ErrPurchaseNotFound), errors.Is(err, ErrNoEarnings):
		return CodeContentNotFound, true
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance, true
	case errors.Is(err, ErrSubscriptionExpired):
		return CodeSubscriptionExpired, true
	case errors.Is(err, ErrInvalidSubscriptionDuration):
		return CodeInvalidSubscriptionDuration, true
	}
	return 0, false
}
