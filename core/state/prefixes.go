package state

import "encoding/binary"

var (
	contentRegistryPrefix = []byte("content/registry/")
	contentPurchasePrefix = []byte("content/purchase/")
	contentEarningsPrefix = []byte("content/earnings/")
	accountPrefix         = []byte("accounts/")

	paramsAdministratorKey = []byte("params/administrator")
	paramsCommissionKey    = []byte("params/commission")
	chainHeightKey         = []byte("chain/height")
	genesisAppliedKey      = []byte("chain/genesis-applied")
)

func contentKey(id uint64) []byte {
	key := make([]byte, len(contentRegistryPrefix)+8)
	copy(key, contentRegistryPrefix)
	binary.BigEndian.PutUint64(key[len(contentRegistryPrefix):], id)
	return key
}

func purchaseKey(buyer [20]byte, id uint64) []byte {
	key := make([]byte, len(contentPurchasePrefix)+len(buyer)+8)
	copy(key, contentPurchasePrefix)
	copy(key[len(contentPurchasePrefix):], buyer[:])
	binary.BigEndian.PutUint64(key[len(contentPurchasePrefix)+len(buyer):], id)
	return key
}

func earningsKey(creator [20]byte) []byte {
	key := make([]byte, len(contentEarningsPrefix)+len(creator))
	copy(key, contentEarningsPrefix)
	copy(key[len(contentEarningsPrefix):], creator[:])
	return key
}

func accountKey(addr []byte) []byte {
	key := make([]byte, len(accountPrefix)+len(addr))
	copy(key, accountPrefix)
	copy(key[len(accountPrefix):], addr)
	return key
}
