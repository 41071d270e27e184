package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/code-payments/reward-vault/pkg/app"
	viperconfig "github.com/code-payments/reward-vault/pkg/config/viper"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/vault"
)

var instructionCommand = &app.Command{
	Name:    "instruction",
	Summary: "print an init or reward instruction as json",
	Flags: func(flags *pflag.FlagSet) {
		publicKeyFlag(flags, programKey, "vault program id")
		publicKeyFlag(flags, authorityKey, "vault authority")
		publicKeyFlag(flags, mintKey, "mint held by the vault")
		publicKeyFlag(flags, recipientKey, "wallet receiving the reward")
		flags.Uint64(amountKey, 0, "reward amount in base units")
	},
	Run: runInstruction,
}

type accountMetaJSON struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type instructionJSON struct {
	Type     string            `json:"type"`
	Program  string            `json:"program"`
	Accounts []accountMetaJSON `json:"accounts"`

	// Base58 encoded, as the RPC returns instruction data.
	Data string `json:"data"`
}

func runInstruction(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.Wrap(app.ErrUsage, "expected one of: init, reward")
	}

	program, err := requirePublicKey(ctx, programKey)
	if err != nil {
		return err
	}
	authority, err := requirePublicKey(ctx, authorityKey)
	if err != nil {
		return err
	}
	mint, err := requirePublicKey(ctx, mintKey)
	if err != nil {
		return err
	}

	var ix solana.Instruction
	switch args[0] {
	case "init":
		accounts, err := rewardvault.NewInitInstructionAccounts(program, authority, mint)
		if err != nil {
			return err
		}
		ix = rewardvault.NewInitInstruction(program, accounts)
	case "reward":
		recipient, err := requirePublicKey(ctx, recipientKey)
		if err != nil {
			return err
		}

		amount := viperconfig.NewUint64Config(amountKey, 0).Get(ctx)
		if amount == 0 {
			return vault.ErrInvalidAmount
		}

		accounts, err := rewardvault.NewRewardInstructionAccounts(program, authority, mint, recipient)
		if err != nil {
			return err
		}
		ix = rewardvault.NewRewardInstruction(program, accounts, &rewardvault.RewardInstructionArgs{
			Amount: amount,
		})
	default:
		return errors.Wrapf(app.ErrUsage, "unknown instruction %q", args[0])
	}

	return writeInstruction(out, ix)
}

func writeInstruction(out io.Writer, ix solana.Instruction) error {
	decoded, err := rewardvault.DecodeInstruction(ix.Data)
	if err != nil {
		return err
	}

	res := instructionJSON{
		Type:     decoded.Type.String(),
		Program:  base58.Encode(ix.Program),
		Accounts: make([]accountMetaJSON, len(ix.Accounts)),
		Data:     base58.Encode(ix.Data),
	}
	for i, meta := range ix.Accounts {
		res.Accounts[i] = accountMetaJSON{
			PublicKey:  base58.Encode(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}
