// Package account persists the accounts of the local ledger.
package account

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// MaxLamports is the largest balance a store can hold. Balances and slots are
// persisted as signed 64 bit integers.
const MaxLamports uint64 = math.MaxInt64

var (
	ErrAccountNotFound = errors.New("no account could be found")
	ErrInvalidAccount  = errors.New("invalid account")
)

type Record struct {
	Id uint64

	Address string
	Owner   string

	Lamports   uint64
	Data       []byte
	Executable bool

	// Slot of the transaction that last wrote the account.
	Slot uint64

	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if err := validateKey(r.Address); err != nil {
		return errors.Wrap(err, "invalid address")
	}
	if err := validateKey(r.Owner); err != nil {
		return errors.Wrap(err, "invalid owner")
	}
	if r.Lamports > MaxLamports {
		return errors.Errorf("lamports out of range: %d", r.Lamports)
	}
	if r.Slot > math.MaxInt64 {
		return errors.Errorf("slot out of range: %d", r.Slot)
	}
	return nil
}

func validateKey(value string) error {
	decoded, err := base58.Decode(value)
	if err != nil {
		return err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return errors.Errorf("invalid key length: %d", len(decoded))
	}
	return nil
}

// Equal reports whether two records hold the same account state, ignoring
// bookkeeping fields.
func (r *Record) Equal(other *Record) bool {
	return r.Address == other.Address &&
		r.Owner == other.Owner &&
		r.Lamports == other.Lamports &&
		r.Executable == other.Executable &&
		bytes.Equal(r.Data, other.Data)
}

func (r *Record) Clone() Record {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Id:            r.Id,
		Address:       r.Address,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		Data:          data,
		Executable:    r.Executable,
		Slot:          r.Slot,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	cloned := r.Clone()
	*dst = cloned
}
