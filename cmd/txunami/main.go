// Command txunami drives a Bitcoin-wire-protocol-compatible UTXO node with a
// high-throughput stream of generated transactions, grounded on
// original_source/main.cpp's main()/MaxSpeed and the teacher's
// cmd/server/main.go for process wiring (settings → logging → domain work).
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/config"
	"github.com/txunami/loaddriver/internal/feeproducer"
	"github.com/txunami/loaddriver/internal/generator"
	"github.com/txunami/loaddriver/internal/logging"
	"github.com/txunami/loaddriver/internal/schedule"
	"github.com/txunami/loaddriver/internal/splitter"
	"github.com/txunami/loaddriver/internal/wireclient"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		config.Fatal("loading settings", err)
	}

	closer, err := logging.Setup(settings.LogLevel, settings.LogDir)
	if err != nil {
		config.Fatal("setting up logging", err)
	}
	defer closer.Close()

	if err := run(settings); err != nil {
		config.Fatal("txunami run failed", err)
	}
}

func run(settings *config.Settings) error {
	root, err := config.LoadDriverConfig(settings.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading domain config: %w", err)
	}
	cfg := root.Config

	magic, err := cfg.Magic()
	if err != nil {
		return fmt.Errorf("resolving net magic: %w", err)
	}

	slog.Info("txunami starting",
		"net", cfg.Net, "bitcoind", cfg.Bitcoind, "minUtxos", cfg.MinUtxos, "splitPerTx", cfg.SplitPerTx)

	seed, err := coin.Load(root.Coins, chainParamsFor(cfg.Net))
	if err != nil {
		return fmt.Errorf("loading seed coins: %w", err)
	}
	slog.Info("loaded seed coins", "count", len(seed))

	ctx := context.Background()
	versionPayload := []byte("txunami-load-driver")

	splitClient, err := wireclient.Dial(ctx, cfg.Bitcoind, magic, versionPayload)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Bitcoind, err)
	}
	defer splitClient.Close()

	pool, err := splitter.Run(ctx, &cfg, splitClient, seed)
	if err != nil {
		return fmt.Errorf("splitting coins: %w", err)
	}
	slog.Info("split phase complete", "poolSize", len(pool))

	txo := make([]*coin.UTXO, len(pool))
	copy(txo, pool)

	if hasSchedule(root) {
		return runSchedule(ctx, &cfg, root, pool, txo, magic, versionPayload)
	}
	return runMaxSpeed(ctx, &cfg, pool, txo, magic, versionPayload)
}

// hasSchedule reports whether the config document carried a non-empty
// "schedule" key.
func hasSchedule(root *config.RootConfig) bool {
	s := string(root.Schedule)
	return s != "" && s != "null"
}

// runSchedule spawns one generator worker per schedule target, each owning
// its own disjoint slice of the pool and its own connection, matching
// Schedule::Execute.
func runSchedule(ctx context.Context, cfg *config.DriverConfig, root *config.RootConfig, pool, txo []*coin.UTXO, magic [4]byte, versionPayload []byte) error {
	now := uint64(time.Now().Unix())
	sched, err := schedule.Load(root.Schedule, now)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	slices := sched.Partition(pool, txo)
	slog.Info("dispatching schedule", "targets", len(slices))

	var wg sync.WaitGroup
	var firstErr atomic.Value
	for _, sl := range slices {
		wg.Add(1)
		go func(sl schedule.Slice) {
			defer wg.Done()

			client, err := wireclient.Dial(ctx, sl.Target.Host, magic, versionPayload)
			if err != nil {
				firstErr.CompareAndSwap(nil, fmt.Errorf("connecting to %s: %w", sl.Target.Host, err))
				return
			}
			defer client.Close()

			fee := feeproducer.New(cfg.Fee)
			if sl.Target.HasFee() {
				fee = feeproducer.New(sl.Target.Fee)
			}

			err = generator.Worker(ctx, client, fee, sl.Phase.StartTime, sl.Phase.EndTime, sl.Target.RateBegin, sl.UTXO, sl.TXO)
			if err != nil {
				firstErr.CompareAndSwap(nil, fmt.Errorf("target %s: %w", sl.Target.Host, err))
			}
		}(sl)
	}
	wg.Wait()

	if err, ok := firstErr.Load().(error); ok {
		return err
	}
	return nil
}

// runMaxSpeed prompts the operator (matching the original's "Generate a
// block <enter>" stdin prompt before it fans out with no rate limiting at
// all) then runs MaxSpeedRounds rounds.
func runMaxSpeed(ctx context.Context, cfg *config.DriverConfig, pool, txo []*coin.UTXO, magic [4]byte, versionPayload []byte) error {
	fmt.Println("Generate a block <enter>")
	bufio.NewReader(os.Stdin).ReadString('\n')

	fee := feeproducer.New(cfg.Fee)
	return generator.MaxSpeed(ctx, cfg.Bitcoind, magic, versionPayload, cfg.MaxThreads, fee, pool, txo)
}

// chainParamsFor maps a "net" config value to the chaincfg.Params whose WIF
// version byte the config file's private keys were encoded with.
// chain_nol (BitcoinUnlimited's NOL test network) has no chaincfg entry of
// its own; it shares regtest's WIF prefix in practice, so it falls back to
// RegressionNetParams.
func chainParamsFor(net string) *chaincfg.Params {
	switch net {
	case "mainnet":
		return &chaincfg.MainNetParams
	case "testnet":
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.RegressionNetParams
	}
}
