package ledger

import (
	"github.com/code-payments/reward-vault/pkg/config"
	"github.com/code-payments/reward-vault/pkg/config/env"
	"github.com/code-payments/reward-vault/pkg/config/memory"
	"github.com/code-payments/reward-vault/pkg/config/wrapper"
	"github.com/code-payments/reward-vault/pkg/solana/system"
)

const (
	envConfigPrefix = "LEDGER_"

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = system.DefaultLamportsPerByteYear

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = system.DefaultExemptionThreshold

	MaxAirdropLamportsConfigEnvName = envConfigPrefix + "MAX_AIRDROP_LAMPORTS"
	defaultMaxAirdropLamports       = 1_000_000_000_000

	// Zero disables the limit.
	AirdropsPerSecondConfigEnvName = envConfigPrefix + "AIRDROPS_PER_SECOND"
	defaultAirdropsPerSecond       = 0

	AirdropBurstConfigEnvName = envConfigPrefix + "AIRDROP_BURST"
	defaultAirdropBurst       = 1
)

type conf struct {
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Float64
	maxAirdropLamports      config.Uint64
	airdropsPerSecond       config.Float64
	airdropBurst            config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewFloat64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			maxAirdropLamports:      env.NewUint64Config(MaxAirdropLamportsConfigEnvName, defaultMaxAirdropLamports),
			airdropsPerSecond:       env.NewFloat64Config(AirdropsPerSecondConfigEnvName, defaultAirdropsPerSecond),
			airdropBurst:            env.NewUint64Config(AirdropBurstConfigEnvName, defaultAirdropBurst),
		}
	}
}

type testOverrides struct {
	rent               system.Rent
	maxAirdropLamports uint64
	airdropsPerSecond  float64
	airdropBurst       uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: wrapper.NewUint64Config(memory.NewConfig(overrides.rent.LamportsPerByteYear), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  wrapper.NewFloat64Config(memory.NewConfig(overrides.rent.ExemptionThreshold), defaultRentExemptionThreshold),
			maxAirdropLamports:      wrapper.NewUint64Config(memory.NewConfig(overrides.maxAirdropLamports), defaultMaxAirdropLamports),
			airdropsPerSecond:       wrapper.NewFloat64Config(memory.NewConfig(overrides.airdropsPerSecond), defaultAirdropsPerSecond),
			airdropBurst:            wrapper.NewUint64Config(memory.NewConfig(overrides.airdropBurst), defaultAirdropBurst),
		}
	}
}
