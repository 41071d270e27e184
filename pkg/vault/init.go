package vault

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

// Accounts expected by Init:
//
//  0. `[writable, signer]` authority, also the payer
//  1. `[]` mint
//  2. `[writable]` vault
//  3. `[writable]` vault token account
//  4. `[]` system program
//  5. `[]` token program
//  6. `[]` rent sysvar
//  7. `[]` associated token account program
const initAccountCount = 8

func (p *Processor) processInit(ctx context.Context, log *logrus.Entry, invoker runtime.Invoker, accounts []*runtime.AccountInfo) error {
	if err := requireAccounts(accounts, initAccountCount); err != nil {
		return err
	}

	authority := accounts[0]
	mint := accounts[1]
	vault := accounts[2]

	log = log.WithFields(logrus.Fields{
		"authority": base58.Encode(authority.Key),
		"mint":      base58.Encode(mint.Key),
		"vault":     base58.Encode(vault.Key),
	})

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	vaultAuthority, err := p.authority()
	if err != nil {
		log.WithError(err).Warn("failure deriving vault authority")
		return err
	}
	if !vaultAuthority.Matches(vault.Key) {
		return ErrIncorrectAddress
	}

	if !vault.DataIsEmpty() {
		return ErrAlreadyInitialized
	}

	size := uint64(rewardvault.VaultAccountSize)
	err = invoker.Invoke(
		ctx,
		system.CreateAccount(authority.Key, vault.Key, p.programID, invoker.Rent().MinimumBalance(size), size),
		vaultAuthority.SignerSeeds(),
	)
	if err != nil {
		return err
	}

	record := rewardvault.VaultAccount{
		Mint:      mint.Key,
		Authority: authority.Key,
	}
	if err := rewardvault.VaultAccountCodec.Initialize(vault.Data, &record); err != nil {
		return codecError(err)
	}

	// The vault does not need to sign for its own associated account. The
	// account may already have been created by anyone, which is accepted as
	// long as it belongs to the vault and mint.
	createAta, _, err := token.CreateAssociatedTokenAccountIdempotent(authority.Key, vault.Key, mint.Key)
	if err != nil {
		return err
	}
	if err := invoker.Invoke(ctx, createAta); err != nil {
		return err
	}

	log.Info("vault initialized")
	recordVaultInitializedEvent(ctx, &record)
	return nil
}
