package ledger

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/system"
)

func processSystem(_ context.Context, _ runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	ix := asInstruction(programID, accounts, data)

	if create, err := system.DecompileCreateAccount(ix); err == nil {
		return systemCreateAccount(findAccount(accounts, create.Funder), findAccount(accounts, create.Address), create)
	}
	if transfer, err := system.DecompileTransfer(ix); err == nil {
		return systemTransfer(findAccount(accounts, transfer.From), findAccount(accounts, transfer.To), transfer.Lamports)
	}

	return solana.InstructionErrorInvalidInstructionData
}

func systemCreateAccount(funder, created *runtime.AccountInfo, create *system.DecompiledCreateAccount) error {
	if !funder.IsSigner || !created.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if created.Lamports > 0 || !created.DataIsEmpty() || !created.IsOwnedBy(system.ProgramKey) {
		return system.ErrorAccountAlreadyInUse
	}

	if create.Size > system.MaxPermittedDataLength {
		return system.ErrorInvalidAccountDataLength
	}

	if funder.Lamports < create.Lamports {
		return system.ErrorResultWithNegativeLamports
	}

	funder.Lamports -= create.Lamports
	created.Lamports += create.Lamports
	created.Data = make([]byte, create.Size)
	created.Owner = create.Owner
	return nil
}

func systemTransfer(from, to *runtime.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if !from.DataIsEmpty() {
		return solana.InstructionErrorInvalidArgument
	}

	if from.Lamports < lamports {
		return system.ErrorResultWithNegativeLamports
	}

	// Both views are the same account on a self transfer.
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}
