// Package generator runs the per-slice transaction generator worker and the
// max-speed fan-out mode, grounded on original_source/main.cpp's
// GenerateTxs and MaxSpeed.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/config"
	"github.com/txunami/loaddriver/internal/feeproducer"
	"github.com/txunami/loaddriver/internal/ratelimit"
	"github.com/txunami/loaddriver/internal/txbuilder"
	"github.com/txunami/loaddriver/internal/wireclient"
)

// MaxSpeedRounds is the fixed number of fan-out rounds MaxSpeed runs.
const MaxSpeedRounds = config.MaxSpeedRounds

// Worker runs one schedule target's emission loop: while now < endTime, it
// leaks FixedPointShift units from a per-worker rate-limited bucket, builds
// and sends one transaction per successful leak, and recycles the UTXO/TXO
// buffers by swapping them once every input has been consumed — exactly
// GenerateTxs's pass-count/swap logic.
func Worker(ctx context.Context, client *wireclient.Client, fee *feeproducer.FeeProducer, startTime, endTime uint64, rateBegin uint64, utxo, txo []*coin.UTXO) error {
	if len(utxo) == 0 {
		return fmt.Errorf("worker given an empty UTXO slice")
	}

	now := uint64(time.Now().Unix())
	if startTime > now {
		time.Sleep(time.Duration(startTime-now) * time.Second)
	}

	began := time.Now()
	scaledRate := rateBegin * config.FixedPointShift
	bucket := ratelimit.New(scaledRate+10, scaledRate, scaledRate/2)
	delay := time.Duration(1_000_000/rateBegin/2) * time.Microsecond

	uit, oit := 0, 0
	passCount := 0
	count := 0

	for uint64(time.Now().Unix()) < endTime {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !bucket.TryLeak(config.FixedPointShift) {
			time.Sleep(delay)
			continue
		}

		if passCount == len(utxo) {
			utxo, txo = txo, utxo
			uit, oit = 0, 0
			passCount = 0
		}

		tx := wire.NewMsgTx(wire.TxVersion)
		worked, err := txbuilder.Build(tx, []*coin.UTXO{utxo[uit]}, []*coin.UTXO{txo[oit]}, fee.Fee())
		if err != nil {
			return fmt.Errorf("building tx at count %d: %w", count, err)
		}
		if worked {
			if err := sendTx(client, tx); err != nil {
				return fmt.Errorf("serializing tx at count %d: %w", count, err)
			}
		}

		count++
		passCount++
		uit++
		oit++
	}

	elapsed := time.Since(began).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(count) / elapsed
	}
	slog.Info("generator worker finished", "sent", count, "elapsedSeconds", elapsed, "txPerSecond", rate)
	return nil
}
