package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

func processToken(_ context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	ix := asInstruction(programID, accounts, data)

	cmd, err := token.GetCommand(ix)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	switch cmd {
	case token.CommandInitializeMint:
		decompiled, err := token.DecompileInitializeMint(ix)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return tokenInitializeMint(invoker, accounts[0], decompiled)
	case token.CommandInitializeAccount:
		decompiled, err := token.DecompileInitializeAccount(ix)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return tokenInitializeAccount(invoker, accounts[0], accounts[1], decompiled)
	case token.CommandTransfer:
		decompiled, err := token.DecompileTransfer(ix)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return tokenTransfer(accounts[0], accounts[1], accounts[2], decompiled.Amount)
	case token.CommandMintTo:
		decompiled, err := token.DecompileMintTo(ix)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return tokenMintTo(accounts[0], accounts[1], accounts[2], decompiled.Amount)
	}

	return token.ErrorInvalidInstruction
}

func tokenInitializeMint(invoker runtime.Invoker, mintInfo *runtime.AccountInfo, decompiled *token.DecompiledInitializeMint) error {
	if !mintInfo.IsOwnedBy(token.ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	var mint token.Mint
	if !mint.Unmarshal(mintInfo.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}

	if !invoker.Rent().IsExempt(mintInfo.Lamports, uint64(len(mintInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	mint = token.Mint{
		MintAuthority:   decompiled.MintAuthority,
		Decimals:        decompiled.Decimals,
		IsInitialized:   true,
		FreezeAuthority: decompiled.FreezeAuthority,
	}
	copy(mintInfo.Data, mint.Marshal())
	return nil
}

func tokenInitializeAccount(invoker runtime.Invoker, accountInfo, mintInfo *runtime.AccountInfo, decompiled *token.DecompiledInitializeAccount) error {
	if !accountInfo.IsOwnedBy(token.ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	var account token.Account
	if !account.Unmarshal(accountInfo.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if account.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}

	if !invoker.Rent().IsExempt(accountInfo.Lamports, uint64(len(accountInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	if _, err := loadMint(mintInfo); err != nil {
		return err
	}

	account = token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	copy(accountInfo.Data, account.Marshal())
	return nil
}

func tokenTransfer(sourceInfo, destinationInfo, ownerInfo *runtime.AccountInfo, amount uint64) error {
	source, err := loadTokenAccount(sourceInfo)
	if err != nil {
		return err
	}
	destination, err := loadTokenAccount(destinationInfo)
	if err != nil {
		return err
	}

	if source.State == token.AccountStateFrozen || destination.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if source.Amount < amount {
		return token.ErrorInsufficientFunds
	}
	if !bytes.Equal(source.Mint, destination.Mint) {
		return token.ErrorMintMismatch
	}

	if !bytes.Equal(source.Owner, ownerInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !ownerInfo.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	// A self transfer is a no-op once validated.
	if sourceInfo == destinationInfo {
		return nil
	}

	if destination.Amount > math.MaxUint64-amount {
		return token.ErrorOverflow
	}

	source.Amount -= amount
	destination.Amount += amount

	copy(sourceInfo.Data, source.Marshal())
	copy(destinationInfo.Data, destination.Marshal())
	return nil
}

func tokenMintTo(mintInfo, destinationInfo, authorityInfo *runtime.AccountInfo, amount uint64) error {
	destination, err := loadTokenAccount(destinationInfo)
	if err != nil {
		return err
	}
	if destination.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if !bytes.Equal(destination.Mint, mintInfo.Key) {
		return token.ErrorMintMismatch
	}

	mint, err := loadMint(mintInfo)
	if err != nil {
		return err
	}
	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !bytes.Equal(mint.MintAuthority, authorityInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !authorityInfo.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if mint.Supply > math.MaxUint64-amount || destination.Amount > math.MaxUint64-amount {
		return token.ErrorOverflow
	}

	mint.Supply += amount
	destination.Amount += amount

	copy(mintInfo.Data, mint.Marshal())
	copy(destinationInfo.Data, destination.Marshal())
	return nil
}

func loadTokenAccount(info *runtime.AccountInfo) (*token.Account, error) {
	if !info.IsOwnedBy(token.ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var account token.Account
	if !account.Unmarshal(info.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if account.State == token.AccountStateUninitialized {
		return nil, token.ErrorUninitializedState
	}
	return &account, nil
}

func loadMint(info *runtime.AccountInfo) (*token.Mint, error) {
	if !info.IsOwnedBy(token.ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, token.ErrorInvalidMint
	}
	return &mint, nil
}
