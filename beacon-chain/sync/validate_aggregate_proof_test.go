package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pubsubpb "github.com/libp2p/go-libp2p-pubsub/pb"
	bitfield "github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockChain "github.com/solsticelabs/solstice/beacon-chain/blockchain/testing"
	"github.com/solsticelabs/solstice/beacon-chain/core/helpers"
	"github.com/solsticelabs/solstice/beacon-chain/core/signing"
	"github.com/solsticelabs/solstice/beacon-chain/operations/attestations"
	"github.com/solsticelabs/solstice/beacon-chain/state"
	"github.com/solsticelabs/solstice/crypto/bls"
)

// checkerStub counts invocations of the shared attestation checks and
// returns a fixed verdict.
type checkerStub struct {
	mu      sync.Mutex
	calls   int
	verdict Verdict
	err     error
	delay   time.Duration
}

func (c *checkerStub) CheckAttestation(_ context.Context, _ *bls.SignatureBatch, _ *phase0.Attestation) (Verdict, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.verdict, c.err
}

func (c *checkerStub) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type testSetup struct {
	service   *Service
	chain     *mockChain.ChainService
	checker   *checkerStub
	pool      attestations.Pool
	keys      []bls.SecretKey
	st        *state.Snapshot
	blockRoot phase0.Root
	slot      phase0.Slot
	committee []phase0.ValidatorIndex
}

// newTestSetup builds a service over a fixed state snapshot holding one
// committee of the given size at slot 1 plus one validator outside it.
func newTestSetup(t *testing.T, committeeSize int) *testSetup {
	t.Helper()

	numValidators := committeeSize + 1
	keys := make([]bls.SecretKey, numValidators)
	pubkeys := make([]phase0.BLSPubKey, numValidators)
	for i := range keys {
		sk, err := bls.RandKey()
		require.NoError(t, err)
		keys[i] = sk
		copy(pubkeys[i][:], sk.PublicKey().Marshal())
	}

	slot := phase0.Slot(1)
	committee := make([]phase0.ValidatorIndex, committeeSize)
	for i := range committee {
		committee[i] = phase0.ValidatorIndex(i)
	}
	st, err := state.NewSnapshot(state.SnapshotConfig{
		Slot: slot,
		Fork: &phase0.Fork{
			PreviousVersion: phase0.Version{0, 0, 0, 0},
			CurrentVersion:  phase0.Version{0, 0, 0, 0},
			Epoch:           0,
		},
		GenesisValidatorsRoot: phase0.Root{0x01},
		Pubkeys:               pubkeys,
		Committees: map[state.CommitteeAssignment][]phase0.ValidatorIndex{
			{Slot: slot, Index: 0}: committee,
		},
	})
	require.NoError(t, err)

	blockRoot := phase0.Root{0xAA}
	chain := &mockChain.ChainService{
		States:  map[phase0.Root]state.ReadOnlyBeaconState{blockRoot: st},
		Genesis: time.Now(),
	}
	checker := &checkerStub{verdict: VerdictAccept}
	pool := attestations.NewPool()
	svc := NewService(context.Background(), &Config{
		Chain:              chain,
		Clock:              chain,
		AttPool:            pool,
		AttestationChecker: checker,
	})
	return &testSetup{
		service:   svc,
		chain:     chain,
		checker:   checker,
		pool:      pool,
		keys:      keys,
		st:        st,
		blockRoot: blockRoot,
		slot:      slot,
		committee: committee,
	}
}

func (ts *testSetup) newAttestation() *phase0.Attestation {
	bits := bitfield.NewBitlist(uint64(len(ts.committee)))
	bits.SetBitAt(0, true)
	bits.SetBitAt(1, true)
	return &phase0.Attestation{
		AggregationBits: bits,
		Data: &phase0.AttestationData{
			Slot:            ts.slot,
			Index:           0,
			BeaconBlockRoot: ts.blockRoot,
			Source:          &phase0.Checkpoint{Epoch: 0, Root: phase0.Root{}},
			Target:          &phase0.Checkpoint{Epoch: 0, Root: ts.blockRoot},
		},
	}
}

// signedAggregate builds a fully signed aggregate for the given aggregator,
// with a genuine selection proof and envelope signature.
func (ts *testSetup) signedAggregate(t *testing.T, aggregatorIdx phase0.ValidatorIndex) *phase0.SignedAggregateAndProof {
	t.Helper()
	sk := ts.keys[aggregatorIdx]

	proofDomain, err := signing.SelectionProofDomain(ts.st.Fork(), ts.slot, ts.st.GenesisValidatorsRoot())
	require.NoError(t, err)
	proofRoot, err := signing.ComputeSigningRootForSlot(ts.slot, proofDomain)
	require.NoError(t, err)
	var proof phase0.BLSSignature
	copy(proof[:], sk.Sign(proofRoot[:]).Marshal())

	msg := &phase0.AggregateAndProof{
		AggregatorIndex: aggregatorIdx,
		Aggregate:       ts.newAttestation(),
		SelectionProof:  proof,
	}

	envDomain, err := signing.AggregateAndProofDomain(ts.st.Fork(), ts.slot, ts.st.GenesisValidatorsRoot())
	require.NoError(t, err)
	envRoot, err := signing.ComputeSigningRoot(msg, envDomain)
	require.NoError(t, err)
	var sig phase0.BLSSignature
	copy(sig[:], sk.Sign(envRoot[:]).Marshal())

	return &phase0.SignedAggregateAndProof{Message: msg, Signature: sig}
}

func pubsubMessage(t *testing.T, signed *phase0.SignedAggregateAndProof) *pubsub.Message {
	t.Helper()
	raw, err := signed.MarshalSSZ()
	require.NoError(t, err)
	return &pubsub.Message{Message: &pubsubpb.Message{Data: raw}}
}

func TestValidateAggregateAndProof_Accepts(t *testing.T) {
	ts := newTestSetup(t, 3)
	msg := pubsubMessage(t, ts.signedAggregate(t, 0))

	res, err := ts.service.ValidateAggregateAndProof(context.Background(), "peer", msg)
	require.NoError(t, err)
	assert.Equal(t, pubsub.ValidationAccept, res)
	require.NotNil(t, msg.ValidatorData)
	decoded, ok := msg.ValidatorData.(*phase0.SignedAggregateAndProof)
	require.True(t, ok)
	assert.Equal(t, phase0.ValidatorIndex(0), decoded.Message.AggregatorIndex)
}

func TestValidateAggregateAndProof_IgnoresSecondFromSameAggregator(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)

	res, err := ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
	require.NoError(t, err)
	require.Equal(t, pubsub.ValidationAccept, res)

	res, err = ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
	assert.ErrorIs(t, err, errDuplicateAggregate)
	assert.Equal(t, pubsub.ValidationIgnore, res)
}

func TestValidateAggregateAndProof_DefersOnUnknownBlock(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)
	signed.Message.Aggregate.Data.BeaconBlockRoot = phase0.Root{0xBB}

	res, err := ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
	require.NoError(t, err)
	assert.Equal(t, pubsub.ValidationIgnore, res)
	assert.Equal(t, 1, ts.service.pendingAggregateCount())

	// A deferred aggregate must not mark the aggregator as seen.
	res, err = ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
	require.NoError(t, err)
	assert.Equal(t, pubsub.ValidationIgnore, res)
	assert.Equal(t, 1, ts.service.pendingAggregateCount())
}

func TestValidateAggregatedAtt_RejectsNilAggregate(t *testing.T) {
	ts := newTestSetup(t, 3)

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), &phase0.SignedAggregateAndProof{})
	assert.ErrorIs(t, err, helpers.ErrNilAggregate)
	assert.Equal(t, VerdictReject, verdict)
	assert.Equal(t, 0, ts.checker.callCount())
}

func TestValidateAggregatedAtt_RejectsUnknownAggregatorIndex(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)
	signed.Message.AggregatorIndex = phase0.ValidatorIndex(len(ts.keys))

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), signed)
	assert.ErrorIs(t, err, errInvalidAggregatorIndex)
	assert.Equal(t, VerdictReject, verdict)
}

func TestValidateAggregatedAtt_RejectsNonAggregator(t *testing.T) {
	// A committee of 64 gives a selection modulo of 4, so roughly three out
	// of four genuine proofs fail the selection check. Scan for one.
	ts := newTestSetup(t, 64)

	var signed *phase0.SignedAggregateAndProof
	for _, idx := range ts.committee {
		candidate := ts.signedAggregate(t, idx)
		if !helpers.IsAggregator(uint64(len(ts.committee)), candidate.Message.SelectionProof[:]) {
			signed = candidate
			break
		}
	}
	require.NotNil(t, signed, "no committee member with a failing selection proof")

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), signed)
	assert.ErrorIs(t, err, errNotAggregator)
	assert.Equal(t, VerdictReject, verdict)
}

func TestValidateAggregatedAtt_RejectsAggregatorOutsideCommittee(t *testing.T) {
	ts := newTestSetup(t, 3)
	// The last validator in the registry is not assigned to the committee.
	outsider := phase0.ValidatorIndex(len(ts.keys) - 1)
	signed := ts.signedAggregate(t, outsider)

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), signed)
	assert.ErrorIs(t, err, errNotInCommittee)
	assert.Equal(t, VerdictReject, verdict)
}

func TestValidateAggregatedAtt_RejectsWrongEnvelopeSigner(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)
	// Replace the envelope signature with one from a different key. The
	// batch verifies as a whole, so the mismatch surfaces at the end.
	envDomain, err := signing.AggregateAndProofDomain(ts.st.Fork(), ts.slot, ts.st.GenesisValidatorsRoot())
	require.NoError(t, err)
	envRoot, err := signing.ComputeSigningRoot(signed.Message, envDomain)
	require.NoError(t, err)
	copy(signed.Signature[:], ts.keys[1].Sign(envRoot[:]).Marshal())

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), signed)
	assert.ErrorIs(t, err, errInvalidBatchSignature)
	assert.Equal(t, VerdictReject, verdict)

	// A failed batch must not mark the aggregator as seen.
	good := ts.signedAggregate(t, 0)
	verdict, err = ts.service.validateAggregatedAtt(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, VerdictAccept, verdict)
}

func TestValidateAggregatedAtt_InnerRejectShortCircuits(t *testing.T) {
	ts := newTestSetup(t, 3)
	ts.checker.verdict = VerdictReject
	signed := ts.signedAggregate(t, 0)

	verdict, _ := ts.service.validateAggregatedAtt(context.Background(), signed)
	assert.Equal(t, VerdictReject, verdict)
	// Rejected before touching the chain service.
	assert.Equal(t, 0, ts.chain.ResolveCalls())
	// The aggregator stays unseen so a later honest aggregate still counts.
	assert.False(t, ts.service.hasSeenAggregatorIndexEpoch(0, 0))
}

func TestValidateAggregatedAtt_InnerSaveForFutureCompletesOuterChecks(t *testing.T) {
	ts := newTestSetup(t, 3)
	ts.checker.verdict = VerdictSaveForFuture
	signed := ts.signedAggregate(t, 0)

	verdict, err := ts.service.validateAggregatedAtt(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, VerdictSaveForFuture, verdict)
	// The outer checks ran in full and the aggregator is now admitted.
	assert.Equal(t, 1, ts.chain.ResolveCalls())
	assert.True(t, ts.service.hasSeenAggregatorIndexEpoch(0, 0))
}

func TestCachedAttestationChecks_SingleFlight(t *testing.T) {
	ts := newTestSetup(t, 3)
	ts.checker.delay = 50 * time.Millisecond
	att := ts.newAttestation()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := bls.NewSignatureBatch()
			verdict, err := ts.service.cachedAttestationChecks(context.Background(), batch, att)
			assert.NoError(t, err)
			assert.Equal(t, VerdictAccept, verdict)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ts.checker.callCount())

	// Completed verdicts are memoized, so a later call stays cache-served.
	batch := bls.NewSignatureBatch()
	verdict, err := ts.service.cachedAttestationChecks(context.Background(), batch, att)
	require.NoError(t, err)
	assert.Equal(t, VerdictAccept, verdict)
	assert.Equal(t, 1, ts.checker.callCount())
}

func TestValidateAggregateAndProof_ConcurrentDuplicatesAdmitOne(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)

	const n = 8
	results := make([]pubsub.ValidationResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _ := ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
			results[i] = res
		}(i)
	}
	wg.Wait()

	accepts := 0
	for _, res := range results {
		if res == pubsub.ValidationAccept {
			accepts++
		} else {
			assert.Equal(t, pubsub.ValidationIgnore, res)
		}
	}
	assert.Equal(t, 1, accepts)
}

func TestProcessPendingAggregates_RetriesOnceBlockArrives(t *testing.T) {
	ts := newTestSetup(t, 3)
	lateRoot := phase0.Root{0xBB}
	signed := ts.signedAggregate(t, 0)
	signed.Message.Aggregate.Data.BeaconBlockRoot = lateRoot

	res, err := ts.service.ValidateAggregateAndProof(context.Background(), "peer", pubsubMessage(t, signed))
	require.NoError(t, err)
	require.Equal(t, pubsub.ValidationIgnore, res)
	require.Equal(t, 1, ts.service.pendingAggregateCount())

	// The voted-for block arrives; the next sweep settles the aggregate.
	ts.chain.States[lateRoot] = ts.st
	ts.service.processPendingAggregates(context.Background())

	assert.Equal(t, 0, ts.service.pendingAggregateCount())
	assert.Equal(t, 1, ts.pool.AggregatedAttestationCount())
}

func TestSavePendingAggregate_DeduplicatesByAggregatorAndSlot(t *testing.T) {
	ts := newTestSetup(t, 3)
	signed := ts.signedAggregate(t, 0)
	signed.Message.Aggregate.Data.BeaconBlockRoot = phase0.Root{0xBB}

	ts.service.savePendingAggregate(signed)
	ts.service.savePendingAggregate(signed)
	assert.Equal(t, 1, ts.service.pendingAggregateCount())

	other := ts.signedAggregate(t, 1)
	other.Message.Aggregate.Data.BeaconBlockRoot = phase0.Root{0xBB}
	ts.service.savePendingAggregate(other)
	assert.Equal(t, 2, ts.service.pendingAggregateCount())
}

func TestBeaconAggregateProofSubscriber_RoutesByAggregationCount(t *testing.T) {
	ts := newTestSetup(t, 3)

	aggregated := ts.signedAggregate(t, 0)
	msg := &pubsub.Message{Message: &pubsubpb.Message{}}
	msg.ValidatorData = aggregated
	require.NoError(t, ts.service.beaconAggregateProofSubscriber(context.Background(), msg))
	assert.Equal(t, 1, ts.pool.AggregatedAttestationCount())
	assert.Equal(t, 0, ts.pool.UnaggregatedAttestationCount())

	single := ts.signedAggregate(t, 1)
	bits := bitfield.NewBitlist(uint64(len(ts.committee)))
	bits.SetBitAt(0, true)
	single.Message.Aggregate.AggregationBits = bits
	msg = &pubsub.Message{Message: &pubsubpb.Message{}}
	msg.ValidatorData = single
	require.NoError(t, ts.service.beaconAggregateProofSubscriber(context.Background(), msg))
	assert.Equal(t, 1, ts.pool.UnaggregatedAttestationCount())
}

func TestValidateAggregateAndProof_RejectsUndecodable(t *testing.T) {
	ts := newTestSetup(t, 3)
	msg := &pubsub.Message{Message: &pubsubpb.Message{Data: []byte{0x01, 0x02}}}

	res, err := ts.service.ValidateAggregateAndProof(context.Background(), "peer", msg)
	require.Error(t, err)
	assert.Equal(t, pubsub.ValidationReject, res)
}
