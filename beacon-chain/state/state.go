// Package state exposes the read-only view of the beacon state consumed by
// the gossip validation pipeline. How states are produced, stored and
// advanced is the concern of the chain service behind the resolver boundary.
package state

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
)

// ReadOnlyBeaconState is an immutable snapshot of the beacon state at a given
// block. Implementations must be safe for concurrent readers; the validation
// pipeline never mutates a state it resolved.
type ReadOnlyBeaconState interface {
	// Slot the state is advanced to.
	Slot() phase0.Slot
	// Fork data of the state, used for signing domain separation.
	Fork() *phase0.Fork
	// GenesisValidatorsRoot anchoring the chain's signing domains.
	GenesisValidatorsRoot() phase0.Root
	// ValidatorPubkey returns the registered public key of the validator at
	// the given index, or false if no such validator exists.
	ValidatorPubkey(idx phase0.ValidatorIndex) (phase0.BLSPubKey, bool)
	// NumValidators returns the size of the validator registry.
	NumValidators() uint64
	// BeaconCommittee returns the ordered committee assigned to attest at the
	// given slot and committee index.
	BeaconCommittee(ctx context.Context, slot phase0.Slot, committeeIndex phase0.CommitteeIndex) ([]phase0.ValidatorIndex, error)
}
