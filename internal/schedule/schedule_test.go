package schedule

import (
	"encoding/json"
	"testing"

	"github.com/txunami/loaddriver/internal/coin"
)

func TestResolveTimeAbsoluteVsRelative(t *testing.T) {
	now := uint64(1_700_000_000)

	if got := resolveTime(1_568_000_000, now); got != 1_568_000_000 {
		t.Errorf("absolute time: got %d, want 1568000000", got)
	}
	if got := resolveTime(60, now); got != now+60 {
		t.Errorf("relative time: got %d, want %d", got, now+60)
	}
}

func TestLoadResolvesPhaseTimes(t *testing.T) {
	raw := json.RawMessage(`[
		{"name": "ramp", "start": 0, "end": 60, "targets": [{"host": "10.0.0.1:18444", "rate": 100}]}
	]`)
	now := uint64(1_700_000_000)

	sched, err := Load(raw, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sched.Phases) != 1 {
		t.Fatalf("len(Phases) = %d, want 1", len(sched.Phases))
	}
	p := sched.Phases[0]
	if p.StartTime != now {
		t.Errorf("StartTime = %d, want %d", p.StartTime, now)
	}
	if p.EndTime != now+60 {
		t.Errorf("EndTime = %d, want %d", p.EndTime, now+60)
	}
	if p.Targets[0].RateEnd != p.Targets[0].RateBegin {
		t.Errorf("RateEnd should default to RateBegin when omitted")
	}
}

func TestLoadRejectsPhaseWithNoTargets(t *testing.T) {
	raw := json.RawMessage(`[{"name": "empty", "start": 0, "end": 10, "targets": []}]`)
	if _, err := Load(raw, 1_700_000_000); err == nil {
		t.Fatal("expected error for phase with no targets")
	}
}

func TestOpUnmarshalTracksExplicitFee(t *testing.T) {
	var withFee Op
	if err := json.Unmarshal([]byte(`{"host":"h","rate":10,"fee":500}`), &withFee); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !withFee.HasFee() {
		t.Error("expected HasFee() = true when fee is present")
	}

	var withoutFee Op
	if err := json.Unmarshal([]byte(`{"host":"h","rate":10}`), &withoutFee); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if withoutFee.HasFee() {
		t.Error("expected HasFee() = false when fee is absent")
	}
}

func TestPartitionSplitsDisjointSlices(t *testing.T) {
	sched := &Schedule{
		Phases: []Phase{
			{Name: "a", Targets: []Op{{Host: "h1"}, {Host: "h2"}}},
			{Name: "b", Targets: []Op{{Host: "h3"}}},
		},
	}

	utxo := make([]*coin.UTXO, 9)
	txo := make([]*coin.UTXO, 9)
	for i := range utxo {
		utxo[i] = &coin.UTXO{Satoshi: uint64(i)}
		txo[i] = &coin.UTXO{}
	}

	slices := sched.Partition(utxo, txo)
	if len(slices) != 3 {
		t.Fatalf("len(slices) = %d, want 3", len(slices))
	}
	for _, sl := range slices {
		if len(sl.UTXO) != 3 {
			t.Errorf("slice for %s has %d utxos, want 3", sl.Target.Host, len(sl.UTXO))
		}
	}
	// Confirm slices are disjoint by checking they start at different
	// positions of the shared pool array.
	if &slices[0].UTXO[0] == &slices[1].UTXO[0] {
		t.Error("expected slices to start at different pool positions")
	}
	if slices[0].UTXO[0] != utxo[0] || slices[2].UTXO[0] != utxo[6] {
		t.Error("slices do not walk the pool in contiguous order")
	}
}
