package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/reward-vault/pkg/ledger/account"

	pgutil "github.com/code-payments/reward-vault/pkg/database/postgres"
	"github.com/code-payments/reward-vault/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

func New(db *sql.DB) account.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get finds the account at address.
func (s *store) Get(ctx context.Context, address string) (*account.Record, error) {
	obj, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(obj), nil
}

// PutAll creates or updates every record within one database transaction.
func (s *store) PutAll(ctx context.Context, records ...*account.Record) error {
	models := make([]*model, len(records))
	for i, record := range records {
		obj, err := toModel(record)
		if err != nil {
			return err
		}
		models[i] = obj
	}

	err := pgutil.ExecuteRetryable(func() error {
		return pgutil.ExecuteInTx(ctx, s.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
			for _, obj := range models {
				if err := obj.dbPut(ctx, tx); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	for i, obj := range models {
		fromModel(obj).CopyTo(records[i])
	}
	return nil
}

// GetAllByOwner returns accounts owned by a program, paged by id.
func (s *store) GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*account.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*account.Record, len(models))
	for i, obj := range models {
		res[i] = fromModel(obj)
	}
	return res, nil
}
