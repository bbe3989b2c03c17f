package kv

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// SaveAggregatedAttestation saves an aggregated attestation in cache.
func (c *AttCaches) SaveAggregatedAttestation(att *phase0.Attestation) error {
	key, err := attCacheKey(att)
	if err != nil {
		return errors.Wrap(err, "could not tree hash attestation")
	}
	c.aggregatedAtt.Set(key, att, cache.DefaultExpiration)
	return nil
}

// AggregatedAttestations returns the aggregated attestations in cache.
func (c *AttCaches) AggregatedAttestations() []*phase0.Attestation {
	items := c.aggregatedAtt.Items()
	atts := make([]*phase0.Attestation, 0, len(items))
	for _, item := range items {
		atts = append(atts, item.Object.(*phase0.Attestation))
	}
	return atts
}

// AggregatedAttestationCount returns the number of aggregated attestations
// in cache.
func (c *AttCaches) AggregatedAttestationCount() int {
	return c.aggregatedAtt.ItemCount()
}

func attCacheKey(att *phase0.Attestation) (string, error) {
	root, err := att.HashTreeRoot()
	if err != nil {
		return "", err
	}
	return string(root[:]), nil
}
