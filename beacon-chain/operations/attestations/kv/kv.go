// Package kv implements the attestation pool as expiring KV stores, one per
// attestation kind.
package kv

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/solsticelabs/solstice/config/params"
)

// AttCaches defines the caches used to satisfy the attestation pool
// interface. Entries expire after one epoch: an attestation that old can no
// longer be included on chain.
type AttCaches struct {
	aggregatedAtt   *cache.Cache
	unAggregatedAtt *cache.Cache
}

// NewAttCaches initializes a new attestation pool consisting of one KV store
// per kind of attestation.
func NewAttCaches() *AttCaches {
	secsInEpoch := time.Duration(params.BeaconConfig().SlotsPerEpoch*params.BeaconConfig().SecondsPerSlot) * time.Second

	return &AttCaches{
		aggregatedAtt:   cache.New(secsInEpoch, secsInEpoch),
		unAggregatedAtt: cache.New(secsInEpoch, secsInEpoch),
	}
}
