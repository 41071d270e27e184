package system

// AccountStorageOverhead is the number of bytes the runtime charges for on
// top of an account's data when computing rent.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L45
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
)

// Rent mirrors the fields of the rent sysvar that matter for exemption.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
}

// DefaultRent is the mainnet rent configuration.
var DefaultRent = Rent{
	LamportsPerByteYear: DefaultLamportsPerByteYear,
	ExemptionThreshold:  DefaultExemptionThreshold,
}

// MinimumBalance returns the lamports an account of dataSize bytes needs to
// be rent exempt.
func (r Rent) MinimumBalance(dataSize uint64) uint64 {
	bytes := AccountStorageOverhead + dataSize
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether balance covers the exemption minimum for dataSize.
func (r Rent) IsExempt(balance, dataSize uint64) bool {
	return balance >= r.MinimumBalance(dataSize)
}
