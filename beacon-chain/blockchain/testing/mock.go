// Package testing provides a mock chain service for tests elsewhere in the
// beacon node.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/solsticelabs/solstice/beacon-chain/state"
)

// ChainService defines the mock interaction with the chain service. States
// are served from a fixed map keyed by block root; unknown roots resolve to
// (nil, nil) like a block that has not arrived yet.
type ChainService struct {
	mu              sync.Mutex
	States          map[phase0.Root]state.ReadOnlyBeaconState
	Genesis         time.Time
	ResolveErr      error
	resolveCalls    int
	forAttestations int
}

// StateByBlockRoot mocks the state resolver method of the same name.
func (c *ChainService) StateByBlockRoot(_ context.Context, root phase0.Root) (state.ReadOnlyBeaconState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveCalls++
	if c.ResolveErr != nil {
		return nil, c.ResolveErr
	}
	return c.States[root], nil
}

// StateForAttestation mocks the resolver's epoch-advancing method. The mock
// never advances; it hands the base state back.
func (c *ChainService) StateForAttestation(_ context.Context, _ *phase0.Attestation, base state.ReadOnlyBeaconState) (state.ReadOnlyBeaconState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forAttestations++
	return base, nil
}

// GenesisTime mocks the genesis time fetcher.
func (c *ChainService) GenesisTime() time.Time {
	return c.Genesis
}

// ResolveCalls reports how many times StateByBlockRoot was invoked.
func (c *ChainService) ResolveCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveCalls
}
