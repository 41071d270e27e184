package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

func processAssociatedTokenAccount(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	create, err := token.DecompileCreateAssociatedAccount(asInstruction(programID, accounts, data))
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	ata := findAccount(accounts, create.Address)
	mint := findAccount(accounts, create.Mint)

	address, bump, err := solana.FindProgramAddressAndBump(
		programID,
		create.Owner,
		token.ProgramKey,
		create.Mint,
	)
	if err != nil || !bytes.Equal(address, create.Address) {
		return solana.InstructionErrorInvalidSeeds
	}

	if create.Idempotent && ata.IsOwnedBy(token.ProgramKey) {
		var existing token.Account
		if !existing.Unmarshal(ata.Data) {
			return solana.InstructionErrorInvalidAccountData
		}
		if !bytes.Equal(existing.Owner, create.Owner) {
			return token.ErrorOwnerMismatch
		}
		if !bytes.Equal(existing.Mint, create.Mint) {
			return token.ErrorMintMismatch
		}
		return nil
	}

	if !mint.IsOwnedBy(token.ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	err = invoker.Invoke(
		ctx,
		system.CreateAccount(
			create.Subsidizer,
			create.Address,
			token.ProgramKey,
			invoker.Rent().MinimumBalance(token.AccountSize),
			token.AccountSize,
		),
		runtime.SignerSeeds{create.Owner, token.ProgramKey, create.Mint, {bump}},
	)
	if err != nil {
		return err
	}

	return invoker.Invoke(ctx, token.InitializeAccount(create.Address, create.Mint, create.Owner))
}
