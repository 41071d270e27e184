package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/code-payments/reward-vault/pkg/app"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
)

var addressCommand = &app.Command{
	Name:    "address",
	Summary: "derive the vault address, bump and token account",
	Flags: func(flags *pflag.FlagSet) {
		publicKeyFlag(flags, programKey, "vault program id")
		publicKeyFlag(flags, mintKey, "mint held by the vault")
	},
	Run: runAddress,
}

func runAddress(ctx context.Context, _ []string, out io.Writer) error {
	program, err := requirePublicKey(ctx, programKey)
	if err != nil {
		return err
	}

	mint, err := optionalPublicKey(ctx, mintKey)
	if err != nil {
		return err
	}

	vault, bump, err := rewardvault.GetVaultAddress(program)
	if err != nil {
		return errors.Wrap(err, "error deriving vault address")
	}

	fmt.Fprintf(out, "program:       %s\n", base58.Encode(program))
	fmt.Fprintf(out, "vault:         %s\n", base58.Encode(vault))
	fmt.Fprintf(out, "bump:          %d\n", bump)

	if mint == nil {
		return nil
	}

	vaultAta, err := rewardvault.GetVaultTokenAccountAddress(program, mint)
	if err != nil {
		return errors.Wrap(err, "error deriving vault token account")
	}

	fmt.Fprintf(out, "mint:          %s\n", base58.Encode(mint))
	fmt.Fprintf(out, "token account: %s\n", base58.Encode(vaultAta))
	return nil
}
