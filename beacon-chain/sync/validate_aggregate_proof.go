package sync

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/solsticelabs/solstice/beacon-chain/core/helpers"
	"github.com/solsticelabs/solstice/beacon-chain/core/signing"
	"github.com/solsticelabs/solstice/beacon-chain/state"
	"github.com/solsticelabs/solstice/crypto/bls"
	"github.com/solsticelabs/solstice/time/slots"
)

// aggregatorIndexEpoch pairs an aggregator with the epoch of its aggregate.
// At most one aggregate per pair is ever admitted.
type aggregatorIndexEpoch struct {
	index phase0.ValidatorIndex
	epoch phase0.Epoch
}

// aggregateChecksResult is the memoized outcome of the shared attestation
// checks for one attestation fingerprint.
type aggregateChecksResult struct {
	verdict Verdict
	err     error
}

// ValidateAggregateAndProof is the gossip topic validator for aggregate
// attestation and proof messages.
//
// Validation (in order):
// - The aggregate is the first valid aggregate received for the aggregator with given epoch.
// - The attestation carried by the aggregate passes the shared attestation checks.
// - The block being voted for (aggregate.data.beacon_block_root) is known locally; otherwise defer.
// - The aggregator index is within the validator registry of the resolved state.
// - The selection proof selects the validator as an aggregator for the slot.
// - The aggregator is a member of the committee it claims to aggregate for.
// - The selection proof, the envelope signature and the attestation signature
//   all verify, checked as one batch.
func (s *Service) ValidateAggregateAndProof(ctx context.Context, pid peer.ID, msg *pubsub.Message) (pubsub.ValidationResult, error) {
	ctx, span := trace.StartSpan(ctx, "sync.validateAggregateAndProof")
	defer span.End()

	aggregateReceivedCounter.Inc()

	if msg == nil || msg.Data == nil {
		return pubsub.ValidationReject, errNilMessage
	}
	signed := &phase0.SignedAggregateAndProof{}
	if err := signed.UnmarshalSSZ(msg.Data); err != nil {
		return pubsub.ValidationReject, errors.Wrap(err, "could not decode aggregate and proof")
	}

	verdict, err := s.validateAggregatedAtt(ctx, signed)
	switch verdict {
	case VerdictAccept:
		msg.ValidatorData = signed
		return pubsub.ValidationAccept, nil
	case VerdictSaveForFuture:
		aggregateDeferredCounter.Inc()
		s.savePendingAggregate(signed)
		return pubsub.ValidationIgnore, err
	case VerdictReject:
		aggregateRejectedCounter.Inc()
		log.WithError(err).WithField("peer", pid).Debug("Rejected aggregate attestation")
		return pubsub.ValidationReject, err
	default:
		aggregateIgnoredCounter.Inc()
		return pubsub.ValidationIgnore, err
	}
}

// validateAggregatedAtt runs the full classification for one signed
// aggregate. Cheap structural checks run before any cryptography, signature
// obligations accumulate into one batch, and the batch is verified exactly
// once at the end. Collaborator failures classify as reject rather than
// propagating: adversarial input must never crash the caller.
func (s *Service) validateAggregatedAtt(ctx context.Context, signed *phase0.SignedAggregateAndProof) (Verdict, error) {
	ctx, span := trace.StartSpan(ctx, "sync.validateAggregatedAtt")
	defer span.End()

	if err := helpers.ValidateNilAggregate(signed); err != nil {
		return VerdictReject, err
	}
	aggregateAndProof := signed.Message
	aggregate := aggregateAndProof.Aggregate
	aggSlot := aggregate.Data.Slot
	epoch := slots.ToEpoch(aggSlot)

	if s.hasSeenAggregatorIndexEpoch(aggregateAndProof.AggregatorIndex, epoch) {
		return VerdictIgnore, errDuplicateAggregate
	}

	// Many aggregates arrive wrapping the same attestation under different
	// aggregators. Each has to be processed individually, but the
	// attestation itself is only checked once per fingerprint.
	batch := bls.NewSignatureBatch()
	innerVerdict, innerErr := s.cachedAttestationChecks(ctx, batch, aggregate)
	if innerVerdict == VerdictReject || innerVerdict == VerdictIgnore {
		log.WithError(innerErr).Debug("Aggregate's attestation failed validation")
		return innerVerdict, innerErr
	}

	baseState, err := s.cfg.Chain.StateByBlockRoot(ctx, aggregate.Data.BeaconBlockRoot)
	if err != nil {
		return VerdictReject, errors.Wrap(err, "could not retrieve state for aggregate")
	}
	if baseState == nil {
		return VerdictSaveForFuture, nil
	}
	st, err := s.cfg.Chain.StateForAttestation(ctx, aggregate, baseState)
	if err != nil {
		return VerdictReject, errors.Wrap(err, "could not advance state to attestation target")
	}
	if st == nil {
		return VerdictSaveForFuture, nil
	}

	rawPubkey, ok := st.ValidatorPubkey(aggregateAndProof.AggregatorIndex)
	if !ok {
		return VerdictReject, errInvalidAggregatorIndex
	}
	aggregatorPubkey, err := bls.PublicKeyFromBytes(rawPubkey[:])
	if err != nil {
		return VerdictReject, errors.Wrap(err, "could not parse aggregator public key")
	}

	if err := queueSelectionProof(batch, st, aggSlot, aggregatorPubkey, aggregateAndProof.SelectionProof); err != nil {
		return VerdictReject, errors.Wrap(err, "could not queue selection proof")
	}

	committee, err := st.BeaconCommittee(ctx, aggSlot, aggregate.Data.Index)
	if err != nil {
		return VerdictReject, errors.Wrap(err, "could not get beacon committee")
	}
	if !helpers.IsAggregator(uint64(len(committee)), aggregateAndProof.SelectionProof[:]) {
		return VerdictReject, errNotAggregator
	}
	if !committeeContains(committee, aggregateAndProof.AggregatorIndex) {
		return VerdictReject, errNotInCommittee
	}

	if err := queueAggregateAndProofSignature(batch, st, signed, aggregatorPubkey); err != nil {
		return VerdictReject, errors.Wrap(err, "could not queue aggregate envelope signature")
	}

	// One batched check settles every queued obligation. A failure cannot
	// identify the offending signature, so the aggregate is rejected as a
	// whole.
	verified, err := batch.Verify()
	if err != nil {
		aggregateBatchFailureCounter.Inc()
		return VerdictReject, errors.Wrap(err, "could not batch verify signatures")
	}
	if !verified {
		aggregateBatchFailureCounter.Inc()
		return VerdictReject, errInvalidBatchSignature
	}

	if !s.setAggregatorIndexEpochSeen(aggregateAndProof.AggregatorIndex, epoch) {
		return VerdictIgnore, errDuplicateAggregate
	}

	return innerVerdict, innerErr
}

// cachedAttestationChecks runs the shared attestation checks for the
// aggregate's inner attestation, at most once per attestation fingerprint.
// Concurrent callers for the same fingerprint attach to the in-flight
// computation, and completed verdicts are memoized until evicted.
func (s *Service) cachedAttestationChecks(ctx context.Context, batch *bls.SignatureBatch, att *phase0.Attestation) (Verdict, error) {
	root, err := att.HashTreeRoot()
	if err != nil {
		return VerdictReject, errors.Wrap(err, "could not tree hash attestation")
	}
	if v, ok := s.aggregateChecksResultCache.Get(root); ok {
		res := v.(aggregateChecksResult)
		return res.verdict, res.err
	}
	v, _, _ := s.inflightAggregateChecks.Do(string(root[:]), func() (interface{}, error) {
		verdict, checkErr := s.cfg.AttestationChecker.CheckAttestation(ctx, batch, att)
		res := aggregateChecksResult{verdict: verdict, err: checkErr}
		s.aggregateChecksResultCache.Add(root, res)
		return res, nil
	})
	res := v.(aggregateChecksResult)
	return res.verdict, res.err
}

func queueSelectionProof(batch *bls.SignatureBatch, st state.ReadOnlyBeaconState, slot phase0.Slot, pubkey bls.PublicKey, proof phase0.BLSSignature) error {
	domain, err := signing.SelectionProofDomain(st.Fork(), slot, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	root, err := signing.ComputeSigningRootForSlot(slot, domain)
	if err != nil {
		return err
	}
	batch.Queue(pubkey, root, proof[:])
	return nil
}

func queueAggregateAndProofSignature(batch *bls.SignatureBatch, st state.ReadOnlyBeaconState, signed *phase0.SignedAggregateAndProof, pubkey bls.PublicKey) error {
	slot := signed.Message.Aggregate.Data.Slot
	domain, err := signing.AggregateAndProofDomain(st.Fork(), slot, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	root, err := signing.ComputeSigningRoot(signed.Message, domain)
	if err != nil {
		return err
	}
	batch.Queue(pubkey, root, signed.Signature[:])
	return nil
}

func committeeContains(committee []phase0.ValidatorIndex, index phase0.ValidatorIndex) bool {
	for _, member := range committee {
		if member == index {
			return true
		}
	}
	return false
}

// hasSeenAggregatorIndexEpoch returns true if an aggregate was already
// admitted for the aggregator at the epoch.
func (s *Service) hasSeenAggregatorIndexEpoch(index phase0.ValidatorIndex, epoch phase0.Epoch) bool {
	s.seenAggregatorLock.RLock()
	defer s.seenAggregatorLock.RUnlock()
	return s.seenAggregatorCache.Contains(aggregatorIndexEpoch{index: index, epoch: epoch})
}

// setAggregatorIndexEpochSeen admits the (aggregator, epoch) pair. Returns
// false when a concurrent validation admitted it first.
func (s *Service) setAggregatorIndexEpochSeen(index phase0.ValidatorIndex, epoch phase0.Epoch) bool {
	s.seenAggregatorLock.Lock()
	defer s.seenAggregatorLock.Unlock()
	key := aggregatorIndexEpoch{index: index, epoch: epoch}
	if s.seenAggregatorCache.Contains(key) {
		return false
	}
	s.seenAggregatorCache.Add(key, true)
	return true
}
