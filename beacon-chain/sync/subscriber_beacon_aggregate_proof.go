package sync

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"

	"github.com/solsticelabs/solstice/beacon-chain/core/helpers"
)

// beaconAggregateProofSubscriber applies a validated aggregate to the local
// attestation pool. The message must have passed ValidateAggregateAndProof,
// which stashes the decoded object in the message's validator data.
func (s *Service) beaconAggregateProofSubscriber(_ context.Context, msg *pubsub.Message) error {
	signed, ok := msg.ValidatorData.(*phase0.SignedAggregateAndProof)
	if !ok {
		return errors.Errorf("message was not type *phase0.SignedAggregateAndProof, type=%T", msg.ValidatorData)
	}
	return s.saveValidatedAggregate(signed)
}

// saveValidatedAggregate routes the aggregate's attestation into the pool.
// Single-vote aggregates land in the unaggregated pool so they remain
// eligible for local aggregation.
func (s *Service) saveValidatedAggregate(signed *phase0.SignedAggregateAndProof) error {
	if err := validateAggregateShape(signed); err != nil {
		return err
	}
	att := signed.Message.Aggregate
	if helpers.IsAggregated(att.AggregationBits) {
		return s.cfg.AttPool.SaveAggregatedAttestation(att)
	}
	return s.cfg.AttPool.SaveUnaggregatedAttestation(att)
}

func validateAggregateShape(signed *phase0.SignedAggregateAndProof) error {
	if signed == nil || signed.Message == nil || signed.Message.Aggregate == nil {
		return errNilMessage
	}
	if signed.Message.Aggregate.AggregationBits == nil {
		return errors.New("nil aggregation bits")
	}
	return nil
}
