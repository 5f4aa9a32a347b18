package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/feeproducer"
	"github.com/txunami/loaddriver/internal/txbuilder"
	"github.com/txunami/loaddriver/internal/wireclient"
)

// MaxSpeed drives host with no rate limiting at all: each of maxThreads
// workers opens its own connection and burns through its share of the pool
// as fast as it can, for MaxSpeedRounds rounds, swapping utxo/txo between
// rounds exactly as original_source/main.cpp's MaxSpeed does.
func MaxSpeed(ctx context.Context, addr string, magic [4]byte, versionPayload []byte, maxThreads int, fee *feeproducer.FeeProducer, utxo, txo []*coin.UTXO) error {
	for step := 0; step < MaxSpeedRounds; step++ {
		stepSize := len(utxo)
		threadedStep := stepSize / maxThreads

		var wg sync.WaitGroup
		var firstErr atomic.Value
		for w := 0; w < maxThreads; w++ {
			start := w * threadedStep
			end := start + threadedStep
			if w == maxThreads-1 {
				end = stepSize
			}

			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				client, err := wireclient.Dial(ctx, addr, magic, versionPayload)
				if err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("round %d: %w", step, err))
					return
				}
				defer client.Close()

				if err := sendP2PKH(client, utxo[start:end], txo[start:end], fee); err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("round %d: %w", step, err))
				}
			}(start, end)
		}
		wg.Wait()

		if err, ok := firstErr.Load().(error); ok {
			return err
		}

		slog.Info("max-speed round complete", "round", step, "sent", stepSize)
		utxo, txo = txo, utxo
	}
	return nil
}

// sendP2PKH builds and sends one transaction per input/output pair, the
// per-worker loop body original_source/main.cpp's sendP2PKH runs.
func sendP2PKH(client *wireclient.Client, utxo, txo []*coin.UTXO, fee *feeproducer.FeeProducer) error {
	n := len(utxo)
	if len(txo) < n {
		n = len(txo)
	}
	for i := 0; i < n; i++ {
		tx := wire.NewMsgTx(wire.TxVersion)
		ok, err := txbuilder.Build(tx, []*coin.UTXO{utxo[i]}, []*coin.UTXO{txo[i]}, fee.Fee())
		if err != nil {
			return err
		}
		if ok {
			if err := sendTx(client, tx); err != nil {
				return err
			}
		}
	}
	return nil
}
