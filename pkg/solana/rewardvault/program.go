// Package rewardvault holds the client-side view of the reward vault program:
// its addresses, account layout and instruction formats.
package rewardvault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("PLAYcZHpkkcLiWY2Csw6bcUbbHh85T3tCqnwsA4qBwh")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID                      = system.ProgramKey
	SPL_TOKEN_PROGRAM_ID                   = token.ProgramKey
	SPL_ASSOCIATED_TOKEN_ACCOUNT_PROGRAM_ID = token.AssociatedTokenAccountProgramKey

	SYSVAR_RENT_PUBKEY = system.RentSysVar
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
