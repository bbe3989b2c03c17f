// Package sync implements the gossip validation pipelines guarding what the
// beacon node relays and applies from the network.
package sync

import (
	"context"
	"sync"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/solsticelabs/solstice/beacon-chain/blockchain"
	"github.com/solsticelabs/solstice/beacon-chain/operations/attestations"
	"github.com/solsticelabs/solstice/crypto/bls"
	lruwrpr "github.com/solsticelabs/solstice/cache/lru"
	"github.com/solsticelabs/solstice/runtime"
)

var _ runtime.Service = (*Service)(nil)

const (
	// seenAggregatorsSize bounds the set of (aggregator, epoch) pairs for
	// which an aggregate was already admitted. Sized for roughly one
	// epoch's worth of aggregates on mainnet; evicting an old entry only
	// costs a harmless re-validation.
	seenAggregatorsSize = 4096
	// aggregateChecksResultSize bounds the memoized verdicts of the shared
	// attestation checks. Eviction trades memory for possible
	// recomputation of the same attestation.
	aggregateChecksResultSize = 4096
)

// AttestationChecker validates the attestation carried inside an aggregate.
// Signature obligations are queued on the supplied batch rather than
// verified eagerly, so the caller can settle them together with its own.
type AttestationChecker interface {
	CheckAttestation(ctx context.Context, batch *bls.SignatureBatch, att *phase0.Attestation) (Verdict, error)
}

// Config holds the collaborating services the sync service is built on.
type Config struct {
	Chain              blockchain.StateResolver
	Clock              blockchain.GenesisTimeFetcher
	AttPool            attestations.Pool
	AttestationChecker AttestationChecker
}

// Service handling gossip validation for the beacon node.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc

	seenAggregatorCache *lru.Cache
	seenAggregatorLock  sync.RWMutex

	aggregateChecksResultCache *lru.Cache
	inflightAggregateChecks    singleflight.Group

	pendingAggsLock      sync.RWMutex
	blkRootToPendingAggs map[phase0.Root][]*phase0.SignedAggregateAndProof
}

// NewService initializes a new sync service with the given config.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		cfg:                        cfg,
		ctx:                        ctx,
		cancel:                     cancel,
		seenAggregatorCache:        lruwrpr.New(seenAggregatorsSize),
		aggregateChecksResultCache: lruwrpr.New(aggregateChecksResultSize),
		blkRootToPendingAggs:       make(map[phase0.Root][]*phase0.SignedAggregateAndProof),
	}
}

// Start begins the background routines of the sync service.
func (s *Service) Start() {
	s.processPendingAggregatesQueue()
}

// Stop ends all the currently running routines of the sync service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status always returns nil.
func (s *Service) Status() error {
	return nil
}
