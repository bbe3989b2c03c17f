package kv

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// SaveUnaggregatedAttestation saves an unaggregated attestation in cache.
func (c *AttCaches) SaveUnaggregatedAttestation(att *phase0.Attestation) error {
	key, err := attCacheKey(att)
	if err != nil {
		return errors.Wrap(err, "could not tree hash attestation")
	}
	c.unAggregatedAtt.Set(key, att, cache.DefaultExpiration)
	return nil
}

// UnaggregatedAttestations returns the unaggregated attestations in cache.
func (c *AttCaches) UnaggregatedAttestations() []*phase0.Attestation {
	items := c.unAggregatedAtt.Items()
	atts := make([]*phase0.Attestation, 0, len(items))
	for _, item := range items {
		atts = append(atts, item.Object.(*phase0.Attestation))
	}
	return atts
}

// UnaggregatedAttestationCount returns the number of unaggregated
// attestations in cache.
func (c *AttCaches) UnaggregatedAttestationCount() int {
	return c.unAggregatedAtt.ItemCount()
}
