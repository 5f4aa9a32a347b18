// Package schedule models the time-phased dispatch plan from txunami.json's
// "schedule" key and partitions the UTXO pool across its targets, grounded
// on original_source/main.cpp's ScheduleOp/SchedulePhase/Schedule classes.
package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/txunami/loaddriver/internal/config"
)

// Op is one dispatch target within a phase: a host to connect to and the
// emission-rate bounds to drive it at.
type Op struct {
	Host      string         `json:"host"`
	RateBegin uint64         `json:"rate"`
	// RateEnd is accepted and stored but, per the original, never used to
	// ramp the emission rate — left for a future iteration.
	RateEnd uint64        `json:"rateEnd"`
	Fee     config.FeeSpec `json:"fee"`

	hasFee bool
}

func (o *Op) UnmarshalJSON(data []byte) error {
	type alias Op
	var a struct {
		alias
		Fee *config.FeeSpec `json:"fee"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*o = Op(a.alias)
	if a.Fee != nil {
		o.Fee = *a.Fee
		o.hasFee = true
	}
	if o.RateEnd == 0 {
		o.RateEnd = o.RateBegin
	}
	return nil
}

// Phase is a named time window during which its targets each run their own
// generator worker.
type Phase struct {
	Name      string `json:"name"`
	StartTime uint64 `json:"start"`
	EndTime   uint64 `json:"end"`
	Targets   []Op   `json:"targets"`
}

// Schedule is the full multi-phase dispatch plan.
type Schedule struct {
	Phases []Phase `json:"phases"`
}

// resolveTime turns a config time value into an absolute Unix timestamp:
// values at or above config.ScheduleAbsoluteTimeThreshold are already
// absolute; smaller values are offsets from now, matching
// SchedulePhase::LoadATime.
func resolveTime(v uint64, now uint64) uint64 {
	if v >= config.ScheduleAbsoluteTimeThreshold {
		return v
	}
	return now + v
}

// Load decodes the "schedule" document — a bare JSON array of phases, per
// spec.md §6 and original_source/main.cpp's Schedule::Load, which iterates
// the array value directly with no wrapping object — and resolves its phase
// start/end times against now (a Unix timestamp, passed in rather than read
// from time.Now() directly so callers control it and tests stay
// deterministic).
func Load(raw json.RawMessage, now uint64) (*Schedule, error) {
	var doc []struct {
		Name    string `json:"name"`
		Start   uint64 `json:"start"`
		End     uint64 `json:"end"`
		Targets []Op   `json:"targets"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}

	sched := &Schedule{Phases: make([]Phase, 0, len(doc))}
	for i, p := range doc {
		name := p.Name
		if name == "" {
			name = "unnamed"
		}
		if len(p.Targets) == 0 {
			return nil, fmt.Errorf("phase %d (%s): no targets", i, name)
		}
		sched.Phases = append(sched.Phases, Phase{
			Name:      name,
			StartTime: resolveTime(p.Start, now),
			EndTime:   resolveTime(p.End, now),
			Targets:   p.Targets,
		})
	}
	return sched, nil
}

// HasFee reports whether this target's JSON explicitly supplied a "fee",
// versus falling back to the driver-wide default.
func (o *Op) HasFee() bool {
	return o.hasFee
}

// NumTargets counts targets across all phases, the denominator Execute uses
// to split the UTXO pool evenly per dispatch slice.
func (s *Schedule) NumTargets() int {
	n := 0
	for _, p := range s.Phases {
		n += len(p.Targets)
	}
	return n
}
