// Package splitter runs the bootstrap phase that fans a handful of seed
// UTXOs out into the large pool the scheduler needs, grounded on
// original_source/main.cpp's splitter loop in main() and on the teacher's
// internal/wallet/generator.go for the parallel-key-generation shape (worker
// count, chunking, error aggregation) reused here to mint fresh keys instead
// of deriving HD addresses.
package splitter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/config"
	"github.com/txunami/loaddriver/internal/feeproducer"
	"github.com/txunami/loaddriver/internal/txbuilder"
	"github.com/txunami/loaddriver/internal/wireclient"
)

// parallelKeyThresholdFactor mirrors the original's "stepSize > maxThreads*100"
// guard: below this size, spinning up goroutines costs more than it saves.
const parallelKeyThresholdFactor = 100

// Run expands seed into a pool of at least cfg.MinUtxos UTXOs by repeatedly
// splitting each UTXO into at most cfg.SplitPerTx fresh ones (see
// chooseSplit), broadcasting every
// transaction it builds to client as it goes.
func Run(ctx context.Context, cfg *config.DriverConfig, client *wireclient.Client, seed []*coin.UTXO) ([]*coin.UTXO, error) {
	fee := feeproducer.New(cfg.Fee)

	utxo := seed
	txo := make([]*coin.UTXO, 0)
	step := 0

	for uint64(len(utxo)) < cfg.MinUtxos {
		curSplit := chooseSplit(cfg.MinUtxos, uint64(len(utxo)), uint64(cfg.SplitPerTx))
		stepSize := uint64(len(utxo)) * curSplit
		txo = make([]*coin.UTXO, stepSize)

		if err := generateKeys(ctx, txo, cfg.MaxThreads); err != nil {
			return nil, fmt.Errorf("step %d: generating keys: %w", step, err)
		}

		txoIdx := uint64(0)
		for _, in := range utxo {
			outs := txo[txoIdx : txoIdx+curSplit]
			tx := wire.NewMsgTx(wire.TxVersion)
			worked, err := txbuilder.Build(tx, []*coin.UTXO{in}, outs, fee.Fee())
			if err != nil {
				return nil, fmt.Errorf("step %d: building split tx: %w", step, err)
			}
			if worked {
				if err := sendTx(client, tx); err != nil {
					return nil, fmt.Errorf("step %d: sending split tx: %w", step, err)
				}
			}
			txoIdx += curSplit
		}

		slog.Info("split step complete",
			"step", step, "from", len(utxo), "to", len(txo), "splitPerTx", curSplit)

		utxo, txo = txo, utxo
		step++
	}

	return utxo, nil
}

// chooseSplit picks how many outputs to split each input into this step,
// clamping down from splitPerTx once the pool is close enough to minUtxos
// that a full splitPerTx-way split would overshoot it by more than
// necessary, matching original_source/main.cpp's curSplit selection: if
// minUtxos/poolSize < splitPerTx, use minUtxos/poolSize + 1, else splitPerTx.
func chooseSplit(minUtxos, poolSize, splitPerTx uint64) uint64 {
	if minUtxos/poolSize < splitPerTx {
		return minUtxos/poolSize + 1
	}
	return splitPerTx
}

// generateKeys mints a fresh private key for every output in txo. It runs
// sequentially below parallelKeyThresholdFactor*maxThreads outputs and
// shards across maxThreads goroutines above it, matching
// internal/wallet/generator.go's chunking/waitgroup/atomic-error shape.
func generateKeys(ctx context.Context, txo []*coin.UTXO, maxThreads int) error {
	numWorkers := maxThreads
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	if len(txo) <= numWorkers*parallelKeyThresholdFactor {
		for i := range txo {
			priv, err := btcec.NewPrivateKey()
			if err != nil {
				return fmt.Errorf("generating key %d: %w", i, err)
			}
			txo[i] = coin.New(priv, 0, nil, 0)
		}
		return nil
	}

	chunkSize := (len(txo) + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	var firstErr atomic.Value
	var progress atomic.Int64

	for start := 0; start < len(txo); start += chunkSize {
		end := min(start+chunkSize, len(txo))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				priv, err := btcec.NewPrivateKey()
				if err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("generating key %d: %w", i, err))
					return
				}
				txo[i] = coin.New(priv, 0, nil, 0)
				progress.Add(1)
			}
		}(start, end)
	}
	wg.Wait()

	if err, ok := firstErr.Load().(error); ok {
		return err
	}
	return nil
}

// sendTx serializes and sends tx. A Send failure is logged and swallowed,
// not propagated: a broken socket degrades throughput but must not abort
// the split phase.
func sendTx(client *wireclient.Client, tx *wire.MsgTx) error {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return fmt.Errorf("serializing tx: %w", err)
	}
	if err := client.Send("tx", buf.Bytes()); err != nil {
		slog.Error("sending split tx failed, continuing", "error", err)
	}
	return nil
}
