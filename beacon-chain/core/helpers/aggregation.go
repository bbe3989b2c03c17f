// Package helpers contains protocol-rule helpers for attestation aggregation
// and aggregator selection.
package helpers

import (
	"encoding/binary"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/solsticelabs/solstice/config/params"
	"github.com/solsticelabs/solstice/crypto/hash"
)

// ErrNilAggregate is returned when a signed aggregate or one of its inner
// containers is nil.
var ErrNilAggregate = errors.New("nil signed aggregate and proof")

// AggregatorModulo computes the selection modulo for a committee of the
// given size.
//
// Spec pseudocode definition:
//  modulo = max(1, len(committee) // TARGET_AGGREGATORS_PER_COMMITTEE)
func AggregatorModulo(committeeCount uint64) uint64 {
	modulo := uint64(1)
	if committeeCount/params.BeaconConfig().TargetAggregatorsPerCommittee > 1 {
		modulo = committeeCount / params.BeaconConfig().TargetAggregatorsPerCommittee
	}
	return modulo
}

// IsAggregator returns true if the signature is from the input validator,
// i.e. the validator is selected as an aggregator for its committee at this
// slot. The test is over the raw proof bytes and says nothing about the
// proof's cryptographic validity.
//
// Spec pseudocode definition:
//  def is_aggregator(state: BeaconState, slot: Slot, index: CommitteeIndex, slot_signature: BLSSignature) -> bool:
//    committee = get_beacon_committee(state, slot, index)
//    modulo = max(1, len(committee) // TARGET_AGGREGATORS_PER_COMMITTEE)
//    return bytes_to_uint64(hash(slot_signature)[0:8]) % modulo == 0
func IsAggregator(committeeCount uint64, slotSig []byte) bool {
	b := hash.Hash(slotSig)
	return binary.LittleEndian.Uint64(b[:8])%AggregatorModulo(committeeCount) == 0
}

// IsAggregated reports whether the bitlist carries more than one vote.
func IsAggregated(bits bitfield.Bitlist) bool {
	return bits.Count() > 1
}

// ValidateNilAggregate checks the signed aggregate for nil inner containers.
func ValidateNilAggregate(signed *phase0.SignedAggregateAndProof) error {
	if signed == nil || signed.Message == nil || signed.Message.Aggregate == nil || signed.Message.Aggregate.Data == nil {
		return ErrNilAggregate
	}
	return nil
}
