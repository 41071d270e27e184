package vault

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/binary"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
)

// Kind groups vault errors by the class of check that rejected the request.
type Kind int

const (
	KindMalformed Kind = iota + 1
	KindAuthorization
	KindLifecycle
	KindDomain
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindAuthorization:
		return "authorization"
	case KindLifecycle:
		return "lifecycle"
	case KindDomain:
		return "domain"
	case KindIntegrity:
		return "integrity"
	}
	return "unknown"
}

// Code is a stable numeric identifier for a vault error. Codes below
// firstBuiltinCode are emitted on the ledger as custom program errors.
type Code uint32

const (
	CodeIncorrectAddress Code = iota
	CodeAlreadyInitialized
	CodeNotInitialized
	CodeUnsupportedMint
	CodeInvalidTokenAccount
	CodeInvalidAmount
	CodeInsufficientFunds
)

const firstBuiltinCode Code = 100

const (
	CodeMissingSignature Code = firstBuiltinCode + iota
	CodeUnauthorized
	CodeTypeMismatch
	CodeCorrupt
	CodeInvalidInstructionData
	CodeIncorrectProgramID
)

// Error is returned by the vault processor for every check it performs
// itself. Failures from invoked programs are never converted into an Error.
type Error struct {
	Kind    Kind
	Code    Code
	Message string

	key solana.InstructionErrorKey
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so that wrapped errors and errors rebuilt from a
// transaction result compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) ErrorKey() solana.InstructionErrorKey {
	if e.key == "" {
		return solana.InstructionErrorCustom
	}
	return e.key
}

func (e *Error) CustomError() *solana.CustomError {
	if e.key != "" {
		return nil
	}
	ce := solana.CustomError(e.Code)
	return &ce
}

var (
	ErrIncorrectAddress    = &Error{Kind: KindAuthorization, Code: CodeIncorrectAddress, Message: "vault address does not match the derived address"}
	ErrAlreadyInitialized  = &Error{Kind: KindLifecycle, Code: CodeAlreadyInitialized, Message: "vault already initialized"}
	ErrNotInitialized      = &Error{Kind: KindLifecycle, Code: CodeNotInitialized, Message: "vault not initialized"}
	ErrUnsupportedMint     = &Error{Kind: KindDomain, Code: CodeUnsupportedMint, Message: "mint not supported by vault"}
	ErrInvalidTokenAccount = &Error{Kind: KindDomain, Code: CodeInvalidTokenAccount, Message: "account is not a token account"}
	ErrInvalidAmount       = &Error{Kind: KindDomain, Code: CodeInvalidAmount, Message: "amount must be greater than zero"}
	ErrInsufficientFunds   = &Error{Kind: KindDomain, Code: CodeInsufficientFunds, Message: "insufficient vault balance"}

	ErrMissingSignature       = &Error{Kind: KindAuthorization, Code: CodeMissingSignature, Message: "authority did not sign", key: solana.InstructionErrorMissingRequiredSignature}
	ErrUnauthorized           = &Error{Kind: KindAuthorization, Code: CodeUnauthorized, Message: "authority does not match vault authority", key: solana.InstructionErrorIllegalOwner}
	ErrTypeMismatch           = &Error{Kind: KindIntegrity, Code: CodeTypeMismatch, Message: "vault account discriminator mismatch", key: solana.InstructionErrorInvalidAccountData}
	ErrCorrupt                = &Error{Kind: KindIntegrity, Code: CodeCorrupt, Message: "vault account data corrupt", key: solana.InstructionErrorInvalidAccountData}
	ErrInvalidInstructionData = &Error{Kind: KindMalformed, Code: CodeInvalidInstructionData, Message: "invalid instruction data", key: solana.InstructionErrorInvalidInstructionData}
	ErrIncorrectProgramID     = &Error{Kind: KindMalformed, Code: CodeIncorrectProgramID, Message: "instruction addressed to another program", key: solana.InstructionErrorIncorrectProgramID}
)

var byCustomCode = map[Code]*Error{
	CodeIncorrectAddress:    ErrIncorrectAddress,
	CodeAlreadyInitialized:  ErrAlreadyInitialized,
	CodeNotInitialized:      ErrNotInitialized,
	CodeUnsupportedMint:     ErrUnsupportedMint,
	CodeInvalidTokenAccount: ErrInvalidTokenAccount,
	CodeInvalidAmount:       ErrInvalidAmount,
	CodeInsufficientFunds:   ErrInsufficientFunds,
}

var byErrorKey = map[solana.InstructionErrorKey]*Error{
	solana.InstructionErrorMissingRequiredSignature: ErrMissingSignature,
	solana.InstructionErrorIllegalOwner:             ErrUnauthorized,
	solana.InstructionErrorInvalidAccountData:       ErrCorrupt,
	solana.InstructionErrorInvalidInstructionData:   ErrInvalidInstructionData,
	solana.InstructionErrorIncorrectProgramID:       ErrIncorrectProgramID,
}

// ErrorFromCustomCode returns the vault error for a custom program error
// code, or nil if the code is not one of ours.
func ErrorFromCustomCode(code solana.CustomError) *Error {
	if code < 0 {
		return nil
	}
	return byCustomCode[Code(code)]
}

// ErrorFromTransactionError maps a failed vault instruction back to a vault
// error. The caller is responsible for ensuring the failing instruction was
// addressed to the vault program, since custom codes are only meaningful per
// program. Nil is returned when no mapping exists, including when a program
// invoked by the vault raised the failure.
//
// A result parsed from an RPC response does not record which program raised
// it, and programs invoked by the vault report custom codes that overlap with
// ours. A custom code read off the wire is therefore only a best guess.
func ErrorFromTransactionError(txErr *solana.TransactionError) *Error {
	if txErr == nil || txErr.InstructionError() == nil {
		return nil
	}

	ixErr := txErr.InstructionError()

	var vaultErr *Error
	if errors.As(ixErr.Err, &vaultErr) {
		return vaultErr
	}

	var invoked solana.InvokedProgramError
	if errors.As(ixErr.Err, &invoked) {
		return nil
	}

	if ce := ixErr.CustomError(); ce != nil {
		return ErrorFromCustomCode(*ce)
	}
	return byErrorKey[ixErr.ErrorKey()]
}

// KindOf reports the vault error kind of err, or zero if err did not
// originate from a vault check.
func KindOf(err error) Kind {
	var vaultErr *Error
	if errors.As(err, &vaultErr) {
		return vaultErr.Kind
	}
	return 0
}

func codecError(err error) error {
	switch errors.Cause(err) {
	case binary.ErrTypeMismatch:
		return ErrTypeMismatch
	case binary.ErrCorrupt:
		return withDetail(ErrCorrupt, err.Error())
	}
	return err
}

func instructionError(err error) error {
	if errors.Is(err, rewardvault.ErrInvalidInstructionData) {
		return ErrInvalidInstructionData
	}
	return err
}

// withDetail returns a copy of base carrying extra context in its message.
func withDetail(base *Error, detail string) *Error {
	cp := *base
	cp.Message = fmt.Sprintf("%s: %s", base.Message, detail)
	return &cp
}
