package sync

import (
	"context"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"go.opencensus.io/trace"

	"github.com/solsticelabs/solstice/async"
	"github.com/solsticelabs/solstice/beacon-chain/core/helpers"
	"github.com/solsticelabs/solstice/config/params"
	"github.com/solsticelabs/solstice/time/slots"
)

// processPendingAggregatesQueue periodically re-validates aggregates that
// arrived before the block they vote for. Tried several times per slot so a
// late block is picked up quickly.
func (s *Service) processPendingAggregatesQueue() {
	interval := time.Duration(params.BeaconConfig().SecondsPerSlot/3) * time.Second
	async.RunEvery(s.ctx, interval, func() {
		s.processPendingAggregates(s.ctx)
	})
}

// processPendingAggregates re-runs full validation for every queued
// aggregate. Anything still waiting on its block re-enters the queue;
// everything else is settled for good.
func (s *Service) processPendingAggregates(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "sync.processPendingAggregates")
	defer span.End()

	s.prunePendingAggregates()

	for _, signed := range s.takePendingAggregates() {
		verdict, err := s.validateAggregatedAtt(ctx, signed)
		switch verdict {
		case VerdictAccept:
			if err := s.saveValidatedAggregate(signed); err != nil {
				log.WithError(err).Debug("Could not save pending aggregate to pool")
			}
		case VerdictSaveForFuture:
			s.savePendingAggregate(signed)
		default:
			log.WithError(err).WithField("verdict", verdict).Debug("Dropping pending aggregate")
		}
	}
}

// savePendingAggregate queues an aggregate whose block is not yet known,
// keyed by the missing block root.
func (s *Service) savePendingAggregate(signed *phase0.SignedAggregateAndProof) {
	if helpers.ValidateNilAggregate(signed) != nil {
		return
	}
	root := signed.Message.Aggregate.Data.BeaconBlockRoot

	s.pendingAggsLock.Lock()
	defer s.pendingAggsLock.Unlock()
	for _, queued := range s.blkRootToPendingAggs[root] {
		if queued.Message.AggregatorIndex == signed.Message.AggregatorIndex &&
			queued.Message.Aggregate.Data.Slot == signed.Message.Aggregate.Data.Slot {
			return
		}
	}
	s.blkRootToPendingAggs[root] = append(s.blkRootToPendingAggs[root], signed)
	pendingAggregatesGauge.Inc()
}

// takePendingAggregates drains the pending queue. Aggregates that still
// cannot be validated are re-queued by the caller.
func (s *Service) takePendingAggregates() []*phase0.SignedAggregateAndProof {
	s.pendingAggsLock.Lock()
	defer s.pendingAggsLock.Unlock()

	var taken []*phase0.SignedAggregateAndProof
	for root, aggs := range s.blkRootToPendingAggs {
		taken = append(taken, aggs...)
		delete(s.blkRootToPendingAggs, root)
	}
	pendingAggregatesGauge.Sub(float64(len(taken)))
	return taken
}

// prunePendingAggregates drops queued aggregates older than one epoch. Their
// attestations can no longer be included and their block is likely gone.
func (s *Service) prunePendingAggregates() {
	currentSlot := slots.SinceGenesis(s.cfg.Clock.GenesisTime())
	if uint64(currentSlot) < params.BeaconConfig().SlotsPerEpoch {
		return
	}
	staleBefore := currentSlot - phase0.Slot(params.BeaconConfig().SlotsPerEpoch)

	s.pendingAggsLock.Lock()
	defer s.pendingAggsLock.Unlock()
	for root, aggs := range s.blkRootToPendingAggs {
		kept := aggs[:0]
		for _, signed := range aggs {
			if signed.Message.Aggregate.Data.Slot >= staleBefore {
				kept = append(kept, signed)
			}
		}
		pendingAggregatesGauge.Sub(float64(len(aggs) - len(kept)))
		if len(kept) == 0 {
			delete(s.blkRootToPendingAggs, root)
			continue
		}
		s.blkRootToPendingAggs[root] = kept
	}
}

// pendingAggregateCount returns the number of queued aggregates.
func (s *Service) pendingAggregateCount() int {
	s.pendingAggsLock.RLock()
	defer s.pendingAggsLock.RUnlock()
	count := 0
	for _, aggs := range s.blkRootToPendingAggs {
		count += len(aggs)
	}
	return count
}
