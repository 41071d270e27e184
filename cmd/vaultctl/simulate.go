package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/code-payments/reward-vault/pkg/app"
	viperconfig "github.com/code-payments/reward-vault/pkg/config/viper"
	pg "github.com/code-payments/reward-vault/pkg/database/postgres"
	"github.com/code-payments/reward-vault/pkg/ledger"
	"github.com/code-payments/reward-vault/pkg/ledger/account"
	"github.com/code-payments/reward-vault/pkg/ledger/account/memory"
	account_postgres "github.com/code-payments/reward-vault/pkg/ledger/account/postgres"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
	"github.com/code-payments/reward-vault/pkg/vault"
)

const (
	storeKey    = "store"
	fundKey     = "fund"
	decimalsKey = "decimals"

	storeMemory   = "memory"
	storePostgres = "postgres"

	defaultFund     = 1_000_000
	defaultAmount   = 250_000
	defaultDecimals = 6

	simulationAirdropLamports = 1_000_000_000
)

var simulateCommand = &app.Command{
	Name:    "simulate",
	Summary: "run init, fund and reward against a local ledger",
	Flags: func(flags *pflag.FlagSet) {
		flags.String(storeKey, storeMemory, "account store (memory or postgres)")
		flags.Uint64(fundKey, defaultFund, "tokens minted into the vault after init")
		flags.Uint64(amountKey, defaultAmount, "reward amount in base units")
		flags.Uint(decimalsKey, defaultDecimals, "mint decimals")
		databaseFlags(flags)
	},
	Run: runSimulate,
}

// simulation holds the keys of a single local run. Every key is freshly
// generated, so runs never collide in a persistent store.
type simulation struct {
	ledger *ledger.Ledger

	program       ed25519.PublicKey
	authority     ed25519.PublicKey
	mintAuthority ed25519.PublicKey
	mint          ed25519.PublicKey
	recipient     ed25519.PublicKey
}

func runSimulate(ctx context.Context, _ []string, out io.Writer) error {
	store, closeStore, err := openStore(ctx, viperconfig.NewStringConfig(storeKey, storeMemory).Get(ctx))
	if err != nil {
		return err
	}
	defer closeStore()

	sim, err := newSimulation(store)
	if err != nil {
		return err
	}

	fund := viperconfig.NewUint64Config(fundKey, defaultFund).Get(ctx)
	amount := viperconfig.NewUint64Config(amountKey, defaultAmount).Get(ctx)
	decimals := viperconfig.NewUint64Config(decimalsKey, defaultDecimals).Get(ctx)
	if decimals > 255 {
		return errors.Errorf("invalid decimals: %d", decimals)
	}

	return sim.run(ctx, fund, amount, byte(decimals), out)
}

func openStore(ctx context.Context, kind string) (account.Store, func(), error) {
	switch kind {
	case storeMemory:
		return memory.New(), func() {}, nil
	case storePostgres:
		db, err := pg.Open(ctx, loadDatabaseConfig(ctx))
		if err != nil {
			return nil, nil, err
		}
		return account_postgres.New(db), func() { db.Close() }, nil
	}
	return nil, nil, errors.Errorf("unknown store: %q", kind)
}

func newSimulation(store account.Store) (*simulation, error) {
	keys := make([]ed25519.PublicKey, 5)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, errors.Wrap(err, "error generating key")
		}
		keys[i] = pub
	}

	sim := &simulation{
		ledger:        ledger.New(store, ledger.WithEnvConfigs()),
		program:       keys[0],
		authority:     keys[1],
		mintAuthority: keys[2],
		mint:          keys[3],
		recipient:     keys[4],
	}

	if err := sim.ledger.RegisterProgram(sim.program, vault.NewProcessor(sim.program)); err != nil {
		return nil, err
	}
	return sim, nil
}

func (s *simulation) run(ctx context.Context, fund, amount uint64, decimals byte, out io.Writer) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "vaultctl/simulate",
		"program": base58.Encode(s.program),
	})

	if err := s.ledger.Airdrop(ctx, s.authority, simulationAirdropLamports); err != nil {
		return errors.Wrap(err, "error funding authority")
	}

	rent := s.ledger.Rent(ctx)
	err := s.ledger.Submit(
		ctx,
		[]ed25519.PublicKey{s.authority, s.mint},
		system.CreateAccount(s.authority, s.mint, token.ProgramKey, rent.MinimumBalance(token.MintSize), token.MintSize),
		token.InitializeMint(s.mint, s.mintAuthority, nil, decimals),
	)
	if err != nil {
		return errors.Wrap(err, "error creating mint")
	}
	log.Debug("mint created")

	initAccounts, err := rewardvault.NewInitInstructionAccounts(s.program, s.authority, s.mint)
	if err != nil {
		return err
	}
	err = s.ledger.Submit(ctx, []ed25519.PublicKey{s.authority}, rewardvault.NewInitInstruction(s.program, initAccounts))
	if err != nil {
		return errors.Wrap(vaultError(err, 0), "error initializing vault")
	}

	if fund > 0 {
		err = s.ledger.Submit(ctx, []ed25519.PublicKey{s.mintAuthority}, token.MintTo(s.mint, initAccounts.VaultAta, s.mintAuthority, fund))
		if err != nil {
			return errors.Wrap(err, "error funding vault")
		}
	}
	log.WithField("fund", fund).Debug("vault funded")

	createDestination, destination, err := token.CreateAssociatedTokenAccount(s.authority, s.recipient, s.mint)
	if err != nil {
		return err
	}

	rewardAccounts, err := rewardvault.NewRewardInstructionAccounts(s.program, s.authority, s.mint, s.recipient)
	if err != nil {
		return err
	}
	err = s.ledger.Submit(
		ctx,
		[]ed25519.PublicKey{s.authority},
		createDestination,
		rewardvault.NewRewardInstruction(s.program, rewardAccounts, &rewardvault.RewardInstructionArgs{Amount: amount}),
	)
	if err != nil {
		return errors.Wrap(vaultError(err, 1), "error rewarding recipient")
	}

	received, err := token.NewClient(s.ledger, s.mint).GetAccount(destination, solana.CommitmentFinalized)
	if err != nil {
		return errors.Wrap(err, "error loading recipient token account")
	}

	if err := inspectVault(ctx, s.ledger, s.program, solana.CommitmentFinalized, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "recipient:     %s\n", base58.Encode(s.recipient))
	fmt.Fprintf(out, "received:      %d\n", received.Amount)
	fmt.Fprintf(out, "slot:          %d\n", s.ledger.Slot())
	return nil
}

// vaultError replaces a failed transaction with the vault error it encodes
// when the instruction at index, the vault instruction, is the one that
// failed.
func vaultError(err error, index int) error {
	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) || txErr.InstructionError() == nil {
		return err
	}
	if txErr.InstructionError().Index != index {
		return err
	}
	if vaultErr := vault.ErrorFromTransactionError(txErr); vaultErr != nil {
		return vaultErr
	}
	return err
}
