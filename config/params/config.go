// Package params defines the beacon chain protocol constants consumed by the
// gossip validation pipeline, along with client-specific tuning values.
package params

// BeaconChainConfig contains the subset of spec constants this client needs to
// classify gossip messages. Values are yaml-tagged with their upstream spec
// names so they can be cross-checked against a config file.
type BeaconChainConfig struct {
	// Time parameters.
	SecondsPerSlot uint64 `yaml:"SECONDS_PER_SLOT" spec:"true"`
	SlotsPerEpoch  uint64 `yaml:"SLOTS_PER_EPOCH" spec:"true"`

	// Committee parameters.
	MaxCommitteesPerSlot          uint64 `yaml:"MAX_COMMITTEES_PER_SLOT" spec:"true"`
	TargetCommitteeSize           uint64 `yaml:"TARGET_COMMITTEE_SIZE" spec:"true"`
	TargetAggregatorsPerCommittee uint64 `yaml:"TARGET_AGGREGATORS_PER_COMMITTEE" spec:"true"`

	// Fork parameters.
	GenesisForkVersion [4]byte `yaml:"GENESIS_FORK_VERSION" spec:"true"`

	// BLS domain values.
	DomainBeaconAttester    [4]byte `yaml:"DOMAIN_BEACON_ATTESTER" spec:"true"`
	DomainSelectionProof    [4]byte `yaml:"DOMAIN_SELECTION_PROOF" spec:"true"`
	DomainAggregateAndProof [4]byte `yaml:"DOMAIN_AGGREGATE_AND_PROOF" spec:"true"`

	// BLS constants.
	BLSSecretKeyLength int
	BLSPubkeyLength    int
	BLSSignatureLength int
}

var beaconConfig = MainnetConfig()

// BeaconConfig retrieves the beacon chain config in use.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig replaces the beacon chain config in use. This should
// only be called at startup or from tests.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}
