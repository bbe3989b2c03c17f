// Package slots contains slot and epoch arithmetic shared across the beacon
// node services.
package slots

import (
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/solsticelabs/solstice/config/params"
)

// ToEpoch returns the epoch number of the given slot.
func ToEpoch(slot phase0.Slot) phase0.Epoch {
	return phase0.Epoch(uint64(slot) / params.BeaconConfig().SlotsPerEpoch)
}

// StartSlot returns the first slot of the given epoch.
func StartSlot(epoch phase0.Epoch) phase0.Slot {
	return phase0.Slot(uint64(epoch) * params.BeaconConfig().SlotsPerEpoch)
}

// SinceGenesis returns the current slot for the chain that started at the
// given genesis time. Returns 0 before genesis.
func SinceGenesis(genesis time.Time) phase0.Slot {
	if genesis.After(time.Now()) {
		return 0
	}
	elapsed := uint64(time.Since(genesis).Seconds())
	return phase0.Slot(elapsed / params.BeaconConfig().SecondsPerSlot)
}
