package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/code-payments/reward-vault/pkg/app"
	viperconfig "github.com/code-payments/reward-vault/pkg/config/viper"
	"github.com/code-payments/reward-vault/pkg/database/query"
	"github.com/code-payments/reward-vault/pkg/ledger/account"
)

const (
	ownerKey  = "owner"
	cursorKey = "cursor"
	limitKey  = "limit"
	orderKey  = "order"

	defaultLimit = 25
)

var accountsCommand = &app.Command{
	Name:    "accounts",
	Summary: "page through ledger accounts owned by a program",
	Flags: func(flags *pflag.FlagSet) {
		publicKeyFlag(flags, ownerKey, "owning program")
		flags.Uint64(cursorKey, 0, "id of the last account on the previous page")
		flags.Uint64(limitKey, defaultLimit, "page size")
		flags.String(orderKey, query.Ascending.String(), "asc or desc")
		databaseFlags(flags)
	},
	Run: runAccounts,
}

func runAccounts(ctx context.Context, _ []string, out io.Writer) error {
	store, closeStore, err := openStore(ctx, storePostgres)
	if err != nil {
		return err
	}
	defer closeStore()

	return listAccounts(ctx, store, out)
}

func listAccounts(ctx context.Context, store account.Store, out io.Writer) error {
	owner, err := requirePublicKey(ctx, ownerKey)
	if err != nil {
		return err
	}

	direction, err := query.ToOrdering(viperconfig.NewStringConfig(orderKey, query.Ascending.String()).Get(ctx))
	if err != nil {
		return errors.Wrap(err, "invalid order")
	}

	cursor := query.EmptyCursor
	if value := viperconfig.NewUint64Config(cursorKey, 0).Get(ctx); value > 0 {
		cursor = query.ToCursor(value)
	}

	records, err := store.GetAllByOwner(ctx, base58.Encode(owner), cursor, viperconfig.NewUint64Config(limitKey, defaultLimit).Get(ctx), direction)
	if err == account.ErrAccountNotFound {
		fmt.Fprintln(out, "no accounts")
		return nil
	} else if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Fprintf(out, "%d\t%s\tlamports=%d\tsize=%d\tslot=%d\n", record.Id, record.Address, record.Lamports, len(record.Data), record.Slot)
	}
	fmt.Fprintf(out, "next cursor: %d\n", records[len(records)-1].Id)
	return nil
}
