// Package runtime defines the contract between an on-ledger program and the
// host that executes it.
package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/system"
)

// AccountInfo is a program's view of one account referenced by the executing
// instruction. The host shares a single AccountInfo per address across an
// instruction and its nested invocations, so changes made by an invoked
// program are visible to the caller once Invoke returns.
type AccountInfo struct {
	Key        ed25519.PublicKey
	Owner      ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	Lamports   uint64
	Data       []byte
}

// DataIsEmpty reports whether the account has no data allocated.
func (a *AccountInfo) DataIsEmpty() bool {
	return len(a.Data) == 0
}

// IsOwnedBy reports whether program owns the account.
func (a *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// SignerSeeds is one set of seeds, bump included, that the calling program
// vouches for when invoking with a derived-address signature.
type SignerSeeds [][]byte

// Invoker gives an executing program access to its host.
type Invoker interface {
	// Invoke executes ix as a nested instruction. Each entry of signers
	// grants a signature for CreateProgramAddress(caller, seeds...).
	Invoke(ctx context.Context, ix solana.Instruction, signers ...SignerSeeds) error

	// Rent returns the host's rent configuration.
	Rent() system.Rent
}

// Program is executable logic the host routes instructions to.
type Program interface {
	// Process executes one instruction addressed to programID.
	Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function into a Program.
type ProgramFunc func(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error {
	return f(ctx, invoker, programID, accounts, data)
}
