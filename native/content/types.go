package content

import "math/big"

const (
	// MaxPermille is the upper bound for permille ratios (100%).
	MaxPermille = 1000
	// MaxMetadataURILength bounds the opaque metadata reference stored per
	// content entry.
	MaxMetadataURILength = 256
)

// Content describes a monetizable item registered on the ledger. The record
// is keyed by a caller-supplied numeric id and stamped with the registrant
// as creator.
type Content struct {
	ID                       uint64   `json:"id"`
	Creator                  [20]byte `json:"creator"`
	Price                    *big.Int `json:"price"`
	CreatorSharePermille     uint32   `json:"creatorSharePermille"`
	MetadataURI              string   `json:"metadataUri"`
	SubscriptionEnabled      bool     `json:"subscriptionEnabled"`
	SubscriptionPeriodBlocks uint64   `json:"subscriptionPeriodBlocks"`
	RegisteredAtBlock        uint64   `json:"registeredAtBlock"`
}

// Clone returns a deep copy of the content record.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Price != nil {
		clone.Price = new(big.Int).Set(c.Price)
	}
	return &clone
}

// PurchaseRecord tracks a buyer's purchase or subscription of a single
// content item. Repeat purchases after lapse overwrite the record in place;
// termination flips Active and truncates the subscription window.
type PurchaseRecord struct {
	Buyer                [20]byte `json:"buyer"`
	ContentID            uint64   `json:"contentId"`
	PurchasedAtBlock     uint64   `json:"purchasedAtBlock"`
	SubscriptionEndBlock uint64   `json:"subscriptionEndBlock"`
	Active               bool     `json:"active"`
}

// Clone returns a copy of the purchase record.
func (p *PurchaseRecord) Clone() *PurchaseRecord {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// RevenueSplit is the outcome of dividing a purchase price between the
// platform and the creator.
type RevenueSplit struct {
	PlatformFee     *big.Int `json:"platformFee"`
	CreatorEarnings *big.Int `json:"creatorEarnings"`
}

// Clone returns a copy of the split with detached amounts.
func (s RevenueSplit) Clone() RevenueSplit {
	clone := RevenueSplit{}
	if s.PlatformFee != nil {
		clone.PlatformFee = new(big.Int).Set(s.PlatformFee)
	}
	if s.CreatorEarnings != nil {
		clone.CreatorEarnings = new(big.Int).Set(s.CreatorEarnings)
	}
	return clone
}
