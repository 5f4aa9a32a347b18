// Package coin holds the transaction driver's value type — a spendable
// output with the key material needed to sign it — and the config-file
// loader that seeds the initial pool from txunami.json's "coins" array.
package coin

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

// UTXO is a single spendable output together with the private key that
// unlocks it. Unlike a real wallet's UTXO set, every value here is either
// read straight from the config file's WIF-encoded "coins" array or minted
// fresh by the splitter — there is no persistence and no derivation path.
type UTXO struct {
	Prevout          wire.OutPoint
	Satoshi          uint64
	ConstraintScript []byte
	PrivKey          *btcec.PrivateKey

	pubKey *btcec.PublicKey
}

// PubKey lazily derives and caches the public key for this UTXO's private key.
func (u *UTXO) PubKey() *btcec.PublicKey {
	if u.pubKey == nil {
		u.pubKey = u.PrivKey.PubKey()
	}
	return u.pubKey
}

// New builds a UTXO around a freshly generated key, as the splitter does for
// every output it creates.
func New(privKey *btcec.PrivateKey, satoshi uint64, constraintScript []byte, outIndex uint32) *UTXO {
	return &UTXO{
		Prevout:          wire.OutPoint{Index: outIndex},
		Satoshi:          satoshi,
		ConstraintScript: constraintScript,
		PrivKey:          privKey,
	}
}
