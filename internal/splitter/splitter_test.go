package splitter

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/txunami/loaddriver/internal/coin"
	"github.com/txunami/loaddriver/internal/config"
	"github.com/txunami/loaddriver/internal/wireclient"
)

func TestGenerateKeysSequential(t *testing.T) {
	txo := make([]*coin.UTXO, 10)
	if err := generateKeys(context.Background(), txo, 10); err != nil {
		t.Fatalf("generateKeys: %v", err)
	}
	for i, u := range txo {
		if u == nil || u.PrivKey == nil {
			t.Fatalf("output %d missing a key", i)
		}
	}
}

func TestGenerateKeysParallel(t *testing.T) {
	const n = 5000
	txo := make([]*coin.UTXO, n)
	if err := generateKeys(context.Background(), txo, 4); err != nil {
		t.Fatalf("generateKeys: %v", err)
	}

	seen := make(map[string]bool, n)
	for i, u := range txo {
		if u == nil || u.PrivKey == nil {
			t.Fatalf("output %d missing a key", i)
		}
		key := u.PrivKey.Serialize()
		if seen[string(key)] {
			t.Fatalf("duplicate private key at index %d", i)
		}
		seen[string(key)] = true
	}
}

func startDiscardListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go io.Copy(io.Discard, conn)
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestRunGrowsPoolPastMinUtxos(t *testing.T) {
	addr, stop := startDiscardListener(t)
	defer stop()

	client, err := wireclient.Dial(context.Background(), addr, [4]byte{0xda, 0xb5, 0xbf, 0xfa}, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	seed := make([]*coin.UTXO, 4)
	for i := range seed {
		priv, err := btcec.NewPrivateKey()
		if err != nil {
			t.Fatalf("NewPrivateKey: %v", err)
		}
		seed[i] = coin.New(priv, 10_000_000, nil, uint32(i))
	}

	cfg := &config.DriverConfig{SplitPerTx: 23, MinUtxos: 1000, MaxThreads: 4}
	cfg.Fee.Constant = new(int64)

	pool, err := Run(context.Background(), cfg, client, seed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if uint64(len(pool)) < cfg.MinUtxos {
		t.Errorf("len(pool) = %d, want >= %d", len(pool), cfg.MinUtxos)
	}
	// 4 -> 92 (curSplit=23, since 1000/4=250 >= 23) -> 1012 (curSplit clamps
	// to 1000/92+1=11 once a full 23-way split would overshoot minUtxos).
	if len(pool) != 1012 {
		t.Errorf("len(pool) = %d, want 1012 (4 * 23 * 11)", len(pool))
	}
}

func TestChooseSplitClampsNearTarget(t *testing.T) {
	if got := chooseSplit(1000, 92, 23); got != 11 {
		t.Errorf("chooseSplit(1000, 92, 23) = %d, want 11", got)
	}
}

func TestChooseSplitUsesSplitPerTxWhenFarFromTarget(t *testing.T) {
	if got := chooseSplit(1000, 4, 23); got != 23 {
		t.Errorf("chooseSplit(1000, 4, 23) = %d, want 23", got)
	}
}
