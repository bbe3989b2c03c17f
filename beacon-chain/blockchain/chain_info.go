// Package blockchain defines the chain service boundary consumed by the
// gossip validation pipeline. Block/state storage and state transition live
// behind these interfaces.
package blockchain

import (
	"context"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/solsticelabs/solstice/beacon-chain/state"
)

// StateResolver retrieves beacon states referenced by gossip messages.
type StateResolver interface {
	// StateByBlockRoot returns the state at the given block root, or
	// (nil, nil) when the block is not yet known locally. A nil state is a
	// timing condition, not an error.
	StateByBlockRoot(ctx context.Context, root phase0.Root) (state.ReadOnlyBeaconState, error)
	// StateForAttestation takes a base state and advances it as needed to
	// the attestation's target epoch. Returns (nil, nil) when the required
	// epoch transition is not yet processable.
	StateForAttestation(ctx context.Context, att *phase0.Attestation, base state.ReadOnlyBeaconState) (state.ReadOnlyBeaconState, error)
}

// GenesisTimeFetcher retrieves the chain's genesis time for wall-clock slot math.
type GenesisTimeFetcher interface {
	GenesisTime() time.Time
}
