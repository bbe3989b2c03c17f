package params

// mainnetBeaconConfig holds the mainnet values for the constants the
// validation pipeline depends on.
var mainnetBeaconConfig = &BeaconChainConfig{
	// Time parameters.
	SecondsPerSlot: 12,
	SlotsPerEpoch:  32,

	// Committee parameters.
	MaxCommitteesPerSlot:          64,
	TargetCommitteeSize:           128,
	TargetAggregatorsPerCommittee: 16,

	// Fork parameters.
	GenesisForkVersion: [4]byte{0, 0, 0, 0},

	// BLS domain values.
	DomainBeaconAttester:    [4]byte{1, 0, 0, 0},
	DomainSelectionProof:    [4]byte{5, 0, 0, 0},
	DomainAggregateAndProof: [4]byte{6, 0, 0, 0},

	// BLS constants.
	BLSSecretKeyLength: 32,
	BLSPubkeyLength:    48,
	BLSSignatureLength: 96,
}

// MainnetConfig returns a fresh copy of the mainnet beacon chain config.
func MainnetConfig() *BeaconChainConfig {
	c := *mainnetBeaconConfig
	return &c
}
