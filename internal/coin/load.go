package coin

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/config"
)

// Spec is one entry of the config file's "coins" array, matching
// original_source/main.cpp's ParseInputCoins.
type Spec struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Satoshi       uint64 `json:"satoshi"`
	PrivKey       string `json:"privKey"`
	ScriptPubKey  string `json:"scriptPubKey"`
}

// Load decodes the "coins" array into seed UTXOs. netParams selects which
// WIF version byte DecodeWIF expects.
func Load(raw json.RawMessage, netParams *chaincfg.Params) ([]*UTXO, error) {
	var specs []Spec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parsing coins: %w", err)
	}

	utxos := make([]*UTXO, 0, len(specs))
	for i, s := range specs {
		hash, err := chainhash.NewHashFromStr(s.TxID)
		if err != nil {
			return nil, fmt.Errorf("coin %d: txid %q: %w", i, s.TxID, err)
		}

		wif, err := btcutil.DecodeWIF(s.PrivKey)
		if err != nil {
			return nil, fmt.Errorf("coin %d: %w: %v", i, config.ErrInvalidPrivKey, err)
		}
		if !wif.IsForNet(netParams) {
			return nil, fmt.Errorf("coin %d: %w: key is not encoded for %s", i, config.ErrInvalidPrivKey, netParams.Name)
		}

		script, err := hex.DecodeString(s.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("coin %d: scriptPubKey %q: %w", i, s.ScriptPubKey, err)
		}

		utxos = append(utxos, &UTXO{
			Prevout:          wire.OutPoint{Hash: *hash, Index: s.Vout},
			Satoshi:          s.Satoshi,
			ConstraintScript: script,
			PrivKey:          wif.PrivKey,
		})
	}

	return utxos, nil
}
