package account

import (
	"context"

	"github.com/code-payments/reward-vault/pkg/database/query"
)

type Store interface {
	// Get finds the account at address.
	//
	// Returns ErrAccountNotFound if the account has never been written.
	Get(ctx context.Context, address string) (*Record, error)

	// PutAll creates or updates every record in a single atomic write. Ids
	// are assigned to new records.
	PutAll(ctx context.Context, records ...*Record) error

	// GetAllByOwner returns accounts owned by a program, paged by id.
	//
	// Returns ErrAccountNotFound if no records are found.
	GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)
}
