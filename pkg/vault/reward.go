package vault

import (
	"bytes"
	"context"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

// Accounts expected by Reward:
//
//  0. `[writable, signer]` authority
//  1. `[]` mint
//  2. `[writable]` vault
//  3. `[writable]` vault token account
//  4. `[writable]` destination token account
//  5. `[]` token program
const rewardAccountCount = 6

func (p *Processor) processReward(ctx context.Context, log *logrus.Entry, invoker runtime.Invoker, accounts []*runtime.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, rewardAccountCount); err != nil {
		return err
	}

	authority := accounts[0]
	mint := accounts[1]
	vault := accounts[2]
	vaultAta := accounts[3]
	destination := accounts[4]

	log = log.WithFields(logrus.Fields{
		"authority":   base58.Encode(authority.Key),
		"mint":        base58.Encode(mint.Key),
		"vault":       base58.Encode(vault.Key),
		"destination": base58.Encode(destination.Key),
		"amount":      amount,
	})

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	if !vaultAta.IsOwnedBy(token.ProgramKey) || !destination.IsOwnedBy(token.ProgramKey) {
		return ErrInvalidTokenAccount
	}

	vaultAuthority, err := p.authority()
	if err != nil {
		log.WithError(err).Warn("failure deriving vault authority")
		return err
	}
	if !vaultAuthority.Matches(vault.Key) {
		return ErrIncorrectAddress
	}

	if vault.DataIsEmpty() {
		return ErrNotInitialized
	}

	record, err := rewardvault.VaultAccountCodec.Decode(vault.Data)
	if err != nil {
		log.WithError(err).Warn("vault account failed to decode")
		return codecError(err)
	}

	if !bytes.Equal(record.Mint, mint.Key) {
		return ErrUnsupportedMint
	}
	if !bytes.Equal(record.Authority, authority.Key) {
		return ErrUnauthorized
	}

	if amount == 0 {
		return ErrInvalidAmount
	}

	var balance token.Account
	if !balance.Unmarshal(vaultAta.Data) {
		log.Warn("vault token account failed to decode")
		return withDetail(ErrCorrupt, "vault token account")
	}
	if amount > balance.Amount {
		return ErrInsufficientFunds
	}

	err = invoker.Invoke(
		ctx,
		token.Transfer(vaultAta.Key, destination.Key, vault.Key, amount),
		vaultAuthority.SignerSeeds(),
	)
	if err != nil {
		return err
	}

	log.Info("reward paid")
	recordRewardPaidEvent(ctx, &record, amount)
	return nil
}
