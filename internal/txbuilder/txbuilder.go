// Package txbuilder assembles and signs the bare P2PKH/P2PK transactions the
// driver fans out to its target node, grounded on original_source/main.cpp's
// createTx and adapted from the teacher's internal/tx/btc_tx.go signing flow
// (NewMultiPrevOutFetcher + NewTxSigHashes) to legacy scripts and the
// SIGHASH_FORKID sighash type used by Bitcoin-Cash-family nodes.
package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/config"
)

// SigHashForkID is BIP143's fork-id bit, OR'd with SigHashAll to select the
// amount-committing sighash algorithm on Bitcoin-Cash-family nodes. It has
// no constant in btcsuite/btcd because mainline Bitcoin never defines it.
const SigHashForkID txscript.SigHashType = 0x40

// sigHashType is the byte appended after every DER signature in this driver:
// SIGHASH_ALL with the fork-id bit set, matching original_source/main.cpp's
// `sighashtype = SIGHASH_FORKID | SIGHASH_ALL`.
const sigHashType = txscript.SigHashAll | SigHashForkID

// NewP2PKHScript builds a standard DUP HASH160 <hash> EQUALVERIFY CHECKSIG
// script paying to pubKey, the same construction as original_source's
// UTXO::createP2PKH and the teacher's PKScriptFromAddress for P2PKH outputs.
func NewP2PKHScript(pubKey *btcec.PublicKey) ([]byte, error) {
	hash := btcutil.Hash160(pubKey.SerializeCompressed())
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// Build assembles a transaction spending every UTXO in inputs into the fresh
// UTXOs in outputs, fans the remaining value evenly across the
// outputs after fee, and signs every input. It reports false (not an error)
// when the inputs can't cover the fee or the per-output split rounds to
// zero, mirroring createTx's bool return — both are expected, frequent
// outcomes during a long-running split, not failures worth logging as such.
func Build(tx *wire.MsgTx, inputs, outputs []*coin.UTXO, fee uint64) (bool, error) {
	var inQty uint64
	for _, in := range inputs {
		inQty += in.Satoshi
	}
	if fee > inQty {
		return false, nil
	}

	numOutputs := uint64(len(outputs))
	outQty := (inQty - fee) / numOutputs
	if outQty == 0 {
		return false, nil
	}

	tx.Version = wire.TxVersion
	tx.LockTime = 0

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	for _, in := range inputs {
		txIn := wire.NewTxIn(&in.Prevout, nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum
		tx.AddTxIn(txIn)
		prevOutFetcher.AddPrevOut(in.Prevout, &wire.TxOut{
			Value:    int64(in.Satoshi),
			PkScript: in.ConstraintScript,
		})
	}

	for i, out := range outputs {
		script, err := NewP2PKHScript(out.PubKey())
		if err != nil {
			return false, fmt.Errorf("building output %d script: %w", i, err)
		}
		out.Satoshi = outQty
		out.ConstraintScript = script
		out.Prevout.Index = uint32(i)
		tx.AddTxOut(wire.NewTxOut(int64(outQty), script))
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	for i, in := range inputs {
		sigScript, err := signInput(tx, sigHashes, i, in)
		if err != nil {
			return false, fmt.Errorf("%w: input %d: %v", config.ErrSigningFailed, i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	txHash := tx.TxHash()
	for _, out := range outputs {
		out.Prevout.Hash = txHash
	}

	return true, nil
}

// signInput computes the BIP143-style sighash (which, unlike legacy
// SignatureHash, commits to the previous output's amount — the property
// SIGHASH_FORKID relies on) over a legacy constraint script and builds the
// matching scriptSig: <sig><pubkey> for P2PKH, <sig> alone for bare P2PK,
// distinguished by inspecting the script's leading opcode rather than any
// script-class hierarchy.
func signInput(tx *wire.MsgTx, sigHashes *txscript.TxSigHashes, idx int, in *coin.UTXO) ([]byte, error) {
	hash, err := txscript.CalcWitnessSigHash(in.ConstraintScript, sigHashes, sigHashType, tx, idx, int64(in.Satoshi))
	if err != nil {
		return nil, fmt.Errorf("computing sighash: %w", err)
	}

	sig := ecdsa.Sign(in.PrivKey, hash)
	sigWithType := append(sig.Serialize(), byte(sigHashType))

	builder := txscript.NewScriptBuilder().AddData(sigWithType)
	if len(in.ConstraintScript) > 0 && in.ConstraintScript[0] == txscript.OP_DUP {
		builder.AddData(in.PubKey().SerializeCompressed())
	}
	return builder.Script()
}
