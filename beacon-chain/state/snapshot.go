package state

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/pkg/errors"
)

// CommitteeAssignment identifies one beacon committee within an epoch.
type CommitteeAssignment struct {
	Slot  phase0.Slot
	Index phase0.CommitteeIndex
}

// SnapshotConfig carries the data needed to build an immutable state snapshot.
// Committee assignments are precomputed by the chain service; the shuffling
// itself is not this package's concern.
type SnapshotConfig struct {
	Slot                  phase0.Slot
	Fork                  *phase0.Fork
	GenesisValidatorsRoot phase0.Root
	Pubkeys               []phase0.BLSPubKey
	Committees            map[CommitteeAssignment][]phase0.ValidatorIndex
}

// Snapshot is a fixed, read-only beacon state view. All fields are copied at
// construction so later mutation of the config cannot leak in.
type Snapshot struct {
	slot       phase0.Slot
	fork       phase0.Fork
	gvr        phase0.Root
	pubkeys    []phase0.BLSPubKey
	committees map[CommitteeAssignment][]phase0.ValidatorIndex
}

// NewSnapshot builds a read-only state from the given config.
func NewSnapshot(cfg SnapshotConfig) (*Snapshot, error) {
	if cfg.Fork == nil {
		return nil, errors.New("nil fork")
	}
	s := &Snapshot{
		slot:       cfg.Slot,
		fork:       *cfg.Fork,
		gvr:        cfg.GenesisValidatorsRoot,
		pubkeys:    make([]phase0.BLSPubKey, len(cfg.Pubkeys)),
		committees: make(map[CommitteeAssignment][]phase0.ValidatorIndex, len(cfg.Committees)),
	}
	copy(s.pubkeys, cfg.Pubkeys)
	for ca, indices := range cfg.Committees {
		c := make([]phase0.ValidatorIndex, len(indices))
		copy(c, indices)
		s.committees[ca] = c
	}
	return s, nil
}

// Slot the state is advanced to.
func (s *Snapshot) Slot() phase0.Slot {
	return s.slot
}

// Fork data of the state.
func (s *Snapshot) Fork() *phase0.Fork {
	f := s.fork
	return &f
}

// GenesisValidatorsRoot anchoring the chain's signing domains.
func (s *Snapshot) GenesisValidatorsRoot() phase0.Root {
	return s.gvr
}

// ValidatorPubkey returns the public key registered at the given index.
func (s *Snapshot) ValidatorPubkey(idx phase0.ValidatorIndex) (phase0.BLSPubKey, bool) {
	if uint64(idx) >= uint64(len(s.pubkeys)) {
		return phase0.BLSPubKey{}, false
	}
	return s.pubkeys[idx], true
}

// NumValidators returns the size of the validator registry.
func (s *Snapshot) NumValidators() uint64 {
	return uint64(len(s.pubkeys))
}

// BeaconCommittee returns the committee assigned to the given slot and index.
func (s *Snapshot) BeaconCommittee(_ context.Context, slot phase0.Slot, committeeIndex phase0.CommitteeIndex) ([]phase0.ValidatorIndex, error) {
	committee, ok := s.committees[CommitteeAssignment{Slot: slot, Index: committeeIndex}]
	if !ok {
		return nil, errors.Errorf("no committee assignment for slot %d index %d", slot, committeeIndex)
	}
	out := make([]phase0.ValidatorIndex, len(committee))
	copy(out, committee)
	return out, nil
}
