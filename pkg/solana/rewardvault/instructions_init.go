package rewardvault

import (
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

type InitInstructionAccounts struct {
	Authority ed25519.PublicKey
	Mint      ed25519.PublicKey
	Vault     ed25519.PublicKey
	VaultAta  ed25519.PublicKey
}

// NewInitInstructionAccounts derives the vault and its token account for
// program and mint.
func NewInitInstructionAccounts(program, authority, mint ed25519.PublicKey) (*InitInstructionAccounts, error) {
	vault, _, err := GetVaultAddress(program)
	if err != nil {
		return nil, err
	}

	vaultAta, err := token.GetAssociatedAccount(vault, mint)
	if err != nil {
		return nil, err
	}

	return &InitInstructionAccounts{
		Authority: authority,
		Mint:      mint,
		Vault:     vault,
		VaultAta:  vaultAta,
	}, nil
}

func NewInitInstruction(
	program ed25519.PublicKey,
	accounts *InitInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1)

	putInstructionType(data, InstructionTypeInit, &offset)

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultAta,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_RENT_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_ASSOCIATED_TOKEN_ACCOUNT_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
