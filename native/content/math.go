package content

import "math/big"

var permilleDenominator = big.NewInt(MaxPermille)

// SplitRevenue divides a purchase price between the platform and the
// creator. The fee is floor(price * commissionPermille / 1000); the creator
// absorbs the rounding remainder. No bound is enforced on the rate here;
// the administrative setter guards [0, 1000].
func SplitRevenue(price *big.Int, commissionPermille uint32) RevenueSplit {
	split := RevenueSplit{PlatformFee: big.NewInt(0), CreatorEarnings: big.NewInt(0)}
	if price == nil || price.Sign() <= 0 {
		return split
	}
	fee := new(big.Int).Mul(price, big.NewInt(int64(commissionPermille)))
	fee = fee.Div(fee, permilleDenominator)
	if fee.Cmp(price) >= 0 {
		split.PlatformFee = new(big.Int).Set(price)
		return split
	}
	split.PlatformFee = fee
	split.CreatorEarnings = new(big.Int).Sub(price, fee)
	return split
}

// Accessible is the access predicate shared by the purchase flow and the
// read interface: the record must be active and the current block must not
// exceed the subscription window. One-time purchases carry a zero end
// block, which no block after genesis satisfies.
func Accessible(record *PurchaseRecord, currentBlock uint64) bool {
	if record == nil {
		return false
	}
	return record.Active && currentBlock <= record.SubscriptionEndBlock
}
