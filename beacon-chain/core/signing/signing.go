// Package signing implements the domain separation rules for signed
// consensus objects: every signature covers a signing root derived from the
// object's hash tree root and a fork/epoch-specific domain, preventing
// cross-context signature reuse.
package signing

import (
	"encoding/binary"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	ssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"

	"github.com/solsticelabs/solstice/config/params"
	"github.com/solsticelabs/solstice/time/slots"
)

// ErrNilFork is returned when the resolved state carries no fork data.
var ErrNilFork = errors.New("nil fork")

// ComputeDomain returns the signing domain for the given domain type and
// fork version.
//
// Spec pseudocode definition:
//  def compute_domain(domain_type: DomainType, fork_version: Version=None, genesis_validators_root: Root=None) -> Domain:
//    fork_data_root = compute_fork_data_root(fork_version, genesis_validators_root)
//    return Domain(domain_type + fork_data_root[:28])
func ComputeDomain(domainType [4]byte, forkVersion phase0.Version, genesisValidatorsRoot phase0.Root) (phase0.Domain, error) {
	forkData := &phase0.ForkData{
		CurrentVersion:        forkVersion,
		GenesisValidatorsRoot: genesisValidatorsRoot,
	}
	forkDataRoot, err := forkData.HashTreeRoot()
	if err != nil {
		return phase0.Domain{}, errors.Wrap(err, "could not compute fork data root")
	}
	var domain phase0.Domain
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain, nil
}

// Domain returns the epoch-aware signing domain, selecting the previous or
// current fork version depending on the epoch.
//
// Spec pseudocode definition:
//  def get_domain(state: BeaconState, domain_type: DomainType, epoch: Epoch=None) -> Domain:
//    epoch = get_current_epoch(state) if epoch is None else epoch
//    fork_version = state.fork.previous_version if epoch < state.fork.epoch else state.fork.current_version
//    return compute_domain(domain_type, fork_version, state.genesis_validators_root)
func Domain(fork *phase0.Fork, epoch phase0.Epoch, domainType [4]byte, genesisValidatorsRoot phase0.Root) (phase0.Domain, error) {
	if fork == nil {
		return phase0.Domain{}, ErrNilFork
	}
	version := fork.CurrentVersion
	if epoch < fork.Epoch {
		version = fork.PreviousVersion
	}
	return ComputeDomain(domainType, version, genesisValidatorsRoot)
}

// ComputeSigningRoot computes the root of the object by calculating the hash
// tree root of the signing data with the given domain.
//
// Spec pseudocode definition:
//  def compute_signing_root(ssz_object: SSZObject, domain: Domain) -> Root:
//    return hash_tree_root(SigningData(object_root=hash_tree_root(ssz_object), domain=domain))
func ComputeSigningRoot(obj ssz.HashRoot, domain phase0.Domain) ([32]byte, error) {
	objRoot, err := obj.HashTreeRoot()
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not compute object root")
	}
	return signingData(objRoot, domain)
}

// ComputeSigningRootForSlot computes the signing root of a bare slot number,
// as used by aggregator selection proofs. The hash tree root of a uint64 is
// its little-endian encoding padded to 32 bytes.
func ComputeSigningRootForSlot(slot phase0.Slot, domain phase0.Domain) ([32]byte, error) {
	var objRoot [32]byte
	binary.LittleEndian.PutUint64(objRoot[:8], uint64(slot))
	return signingData(objRoot, domain)
}

func signingData(objRoot [32]byte, domain phase0.Domain) ([32]byte, error) {
	sd := &phase0.SigningData{
		ObjectRoot: phase0.Root(objRoot),
		Domain:     domain,
	}
	return sd.HashTreeRoot()
}

// SelectionProofDomain returns the selection proof domain at the epoch of
// the given slot.
func SelectionProofDomain(fork *phase0.Fork, slot phase0.Slot, genesisValidatorsRoot phase0.Root) (phase0.Domain, error) {
	return Domain(fork, slots.ToEpoch(slot), params.BeaconConfig().DomainSelectionProof, genesisValidatorsRoot)
}

// AggregateAndProofDomain returns the aggregate-and-proof envelope domain at
// the epoch of the given slot.
func AggregateAndProofDomain(fork *phase0.Fork, slot phase0.Slot, genesisValidatorsRoot phase0.Root) (phase0.Domain, error) {
	return Domain(fork, slots.ToEpoch(slot), params.BeaconConfig().DomainAggregateAndProof, genesisValidatorsRoot)
}
