package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/spf13/pflag"

	"github.com/code-payments/reward-vault/pkg/app"
	viperconfig "github.com/code-payments/reward-vault/pkg/config/viper"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/token"
	"github.com/code-payments/reward-vault/pkg/vault"
)

var inspectCommand = &app.Command{
	Name:    "inspect",
	Summary: "read a deployed vault over rpc",
	Flags: func(flags *pflag.FlagSet) {
		publicKeyFlag(flags, programKey, "vault program id")
		rpcFlags(flags)
	},
	Run: runInspect,
}

func runInspect(ctx context.Context, _ []string, out io.Writer) error {
	program, err := requirePublicKey(ctx, programKey)
	if err != nil {
		return err
	}

	commitment, err := loadCommitment(ctx)
	if err != nil {
		return err
	}

	client := solana.NewWithRPCOptions(
		viperconfig.NewStringConfig(rpcEndpointKey, defaultRpcEndpoint).Get(ctx),
		viperconfig.NewDurationConfig(rpcTimeoutKey, defaultRpcTimeout).Get(ctx),
		nil,
	)

	return inspectVault(ctx, client, program, commitment, out)
}

func inspectVault(ctx context.Context, getter token.AccountInfoGetter, program ed25519.PublicKey, commitment solana.Commitment, out io.Writer) error {
	info, err := vault.Inspect(ctx, getter, program, commitment)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "vault:         %s\n", info.Authority)
	fmt.Fprintf(out, "bump:          %d\n", info.Authority.Bump)
	fmt.Fprintf(out, "state:         %s\n", info.State)

	if info.Record == nil {
		return nil
	}

	fmt.Fprintf(out, "mint:          %s\n", base58.Encode(info.Record.Mint))
	fmt.Fprintf(out, "authority:     %s\n", base58.Encode(info.Record.Authority))
	fmt.Fprintf(out, "token account: %s\n", base58.Encode(info.TokenAccount))
	if info.State == vault.StateInitialized {
		fmt.Fprintf(out, "balance:       %d\n", info.Balance)
	}
	return nil
}
