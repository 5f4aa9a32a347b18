package schedule

import "github.com/txunami/loaddriver/internal/coin"

// Slice is one target's disjoint, contiguous share of the pool: no locking
// is needed between workers because ownership is partitioned up front,
// matching Schedule::Execute's utxoIt/txoIt pointer walk.
type Slice struct {
	Phase  Phase
	Target Op
	UTXO   []*coin.UTXO
	TXO    []*coin.UTXO
}

// Partition splits utxo and txo into one disjoint, equally-sized slice per
// target across every phase, in phase then target order, matching
// Schedule::Execute's "txoPerEntity = utxo.size() / numEntities" walk.
func (s *Schedule) Partition(utxo, txo []*coin.UTXO) []Slice {
	numEntities := s.NumTargets()
	if numEntities == 0 {
		return nil
	}
	perEntity := len(utxo) / numEntities

	slices := make([]Slice, 0, numEntities)
	offset := 0
	for _, phase := range s.Phases {
		for _, target := range phase.Targets {
			end := offset + perEntity
			if end > len(utxo) {
				end = len(utxo)
			}
			slices = append(slices, Slice{
				Phase:  phase,
				Target: target,
				UTXO:   utxo[offset:end],
				TXO:    txo[offset:end],
			})
			offset = end
		}
	}
	return slices
}
