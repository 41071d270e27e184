package rewardvault

import (
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/binary"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

const (
	RewardInstructionArgsSize = 8 // amount
)

type RewardInstructionArgs struct {
	Amount uint64
}

type RewardInstructionAccounts struct {
	Authority   ed25519.PublicKey
	Mint        ed25519.PublicKey
	Vault       ed25519.PublicKey
	VaultAta    ed25519.PublicKey
	Destination ed25519.PublicKey
}

// NewRewardInstructionAccounts derives the vault, its token account and the
// recipient's associated token account for mint.
func NewRewardInstructionAccounts(program, authority, mint, recipient ed25519.PublicKey) (*RewardInstructionAccounts, error) {
	vault, _, err := GetVaultAddress(program)
	if err != nil {
		return nil, err
	}

	vaultAta, err := token.GetAssociatedAccount(vault, mint)
	if err != nil {
		return nil, err
	}

	destination, err := token.GetAssociatedAccount(recipient, mint)
	if err != nil {
		return nil, err
	}

	return &RewardInstructionAccounts{
		Authority:   authority,
		Mint:        mint,
		Vault:       vault,
		VaultAta:    vaultAta,
		Destination: destination,
	}, nil
}

func NewRewardInstruction(
	program ed25519.PublicKey,
	accounts *RewardInstructionAccounts,
	args *RewardInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+RewardInstructionArgsSize)

	putInstructionType(data, InstructionTypeReward, &offset)
	binary.PutUint64(data, args.Amount, &offset)

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
				PublicKey:  accounts.Destination,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
