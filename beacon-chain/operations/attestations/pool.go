// Package attestations defines the attestation pool fed by gossip
// validation. Validated aggregates wait here for the proposer and fork
// choice actors.
package attestations

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/solsticelabs/solstice/beacon-chain/operations/attestations/kv"
)

// Pool defines the necessary methods for the attestation pool to receive
// validated attestations from gossip.
type Pool interface {
	// For aggregated attestations.
	SaveAggregatedAttestation(att *phase0.Attestation) error
	AggregatedAttestations() []*phase0.Attestation
	AggregatedAttestationCount() int
	// For unaggregated attestations.
	SaveUnaggregatedAttestation(att *phase0.Attestation) error
	UnaggregatedAttestations() []*phase0.Attestation
	UnaggregatedAttestationCount() int
}

// NewPool initializes a new attestation pool.
func NewPool() *kv.AttCaches {
	return kv.NewAttCaches()
}
