package sync

import "github.com/pkg/errors"

var (
	errNilMessage             = errors.New("nil pubsub message")
	errDuplicateAggregate     = errors.New("aggregate already seen for this aggregator and epoch")
	errInvalidAggregatorIndex = errors.New("aggregate has invalid aggregator index")
	errNotAggregator          = errors.New("selection proof does not select validator as aggregator")
	errNotInCommittee         = errors.New("attester is not in committee")
	errInvalidBatchSignature  = errors.New("invalid batch signature")
)
