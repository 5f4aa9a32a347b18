// Package feeproducer generates per-transaction fee amounts: either a fixed
// constant or a uniformly-distributed random value in [min,max], grounded on
// original_source/main.cpp's FeeProducer. math/rand/v2's top-level
// generator is used instead of a manually-seeded math/rand source: it is
// auto-seeded and safe for concurrent use out of the box, which is exactly
// the "nondeterministic source at construction" the original's
// std::default_random_engine rnd gave it, with no seeding boilerplate.
package feeproducer

import (
	"math/rand/v2"

	"github.com/txunami/loaddriver/internal/config"
)

// FeeProducer yields one fee amount per call, either a fixed constant or a
// value drawn uniformly from [min,max].
type FeeProducer struct {
	constant  int64
	isConstant bool
	min, max  int64
}

// New builds a FeeProducer from a config.FeeSpec.
func New(spec config.FeeSpec) *FeeProducer {
	if spec.Constant != nil {
		return &FeeProducer{constant: *spec.Constant, isConstant: true}
	}
	var min, max int64
	if spec.Min != nil {
		min = *spec.Min
	}
	if spec.Max != nil {
		max = *spec.Max
	}
	return &FeeProducer{min: min, max: max}
}

// Constant builds a FeeProducer that always returns the same fee, matching
// GlobalConfig's default FeeProducer(fee) constructor.
func Constant(fee uint64) *FeeProducer {
	return &FeeProducer{constant: int64(fee), isConstant: true}
}

// Fee returns the next fee amount.
func (f *FeeProducer) Fee() uint64 {
	if f.isConstant {
		return uint64(f.constant)
	}
	if f.max <= f.min {
		return uint64(f.min)
	}
	return uint64(f.min + rand.Int64N(f.max-f.min+1))
}
