package vault

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/reward-vault/pkg/metrics"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

type State int

const (
	StateUninitialized State = iota
	StateInitialized
	// StateMissingTokenAccount is a vault whose record was written but whose
	// associated token account does not exist. Init can be completed by
	// creating the token account directly.
	StateMissingTokenAccount
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateMissingTokenAccount:
		return "missing_token_account"
	}
	return "unknown"
}

// Info is a snapshot of a deployed vault.
type Info struct {
	State     State
	Authority Authority

	// Set once the vault record exists.
	Record *rewardvault.VaultAccount

	// Set once the vault record exists, whether or not the account itself
	// has been created.
	TokenAccount ed25519.PublicKey
	Balance      uint64
}

// Inspect reads the vault deployed under program. Stored data that fails
// validation is returned as an integrity error rather than a state.
func Inspect(ctx context.Context, getter token.AccountInfoGetter, program ed25519.PublicKey, commitment solana.Commitment) (info *Info, err error) {
	tracer := metrics.TraceMethodCall(ctx, "vault", "Inspect")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	vaultAuthority, err := DeriveAuthority(program)
	if err != nil {
		return nil, err
	}

	info = &Info{
		State:     StateUninitialized,
		Authority: vaultAuthority,
	}

	vaultInfo, err := getter.GetAccountInfo(vaultAuthority.Address, commitment)
	if err == solana.ErrNoAccountInfo {
		return info, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting vault account")
	}
	if len(vaultInfo.Data) == 0 {
		return info, nil
	}
	if !vaultInfo.Owner.Equal(program) {
		return nil, withDetail(ErrCorrupt, "vault not owned by program")
	}

	record, err := rewardvault.VaultAccountCodec.Decode(vaultInfo.Data)
	if err != nil {
		return nil, codecError(err)
	}
	info.Record = &record

	info.TokenAccount, err = token.GetAssociatedAccount(vaultAuthority.Address, record.Mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault token account")
	}

	ataInfo, err := getter.GetAccountInfo(info.TokenAccount, commitment)
	if err == solana.ErrNoAccountInfo {
		info.State = StateMissingTokenAccount
		return info, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting vault token account")
	}
	if !ataInfo.Owner.Equal(token.ProgramKey) {
		return nil, ErrInvalidTokenAccount
	}

	var account token.Account
	if !account.Unmarshal(ataInfo.Data) {
		return nil, withDetail(ErrCorrupt, "vault token account")
	}

	info.State = StateInitialized
	info.Balance = account.Amount
	return info, nil
}
