package vault

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/binary"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
)

func TestErrorCodes(t *testing.T) {
	for code, expected := range map[Code]*Error{
		0: ErrIncorrectAddress,
		1: ErrAlreadyInitialized,
		2: ErrNotInitialized,
		3: ErrUnsupportedMint,
		4: ErrInvalidTokenAccount,
		5: ErrInvalidAmount,
		6: ErrInsufficientFunds,
	} {
		assert.Equal(t, code, expected.Code)
		assert.Equal(t, solana.InstructionErrorCustom, expected.ErrorKey())
		require.NotNil(t, expected.CustomError())
		assert.EqualValues(t, code, *expected.CustomError())
		assert.Equal(t, expected, ErrorFromCustomCode(solana.CustomError(code)))
	}

	assert.Nil(t, ErrorFromCustomCode(7))
	assert.Nil(t, ErrorFromCustomCode(100))
	assert.Nil(t, ErrorFromCustomCode(-1))

	for expected, key := range map[*Error]solana.InstructionErrorKey{
		ErrMissingSignature:       solana.InstructionErrorMissingRequiredSignature,
		ErrUnauthorized:           solana.InstructionErrorIllegalOwner,
		ErrTypeMismatch:           solana.InstructionErrorInvalidAccountData,
		ErrCorrupt:                solana.InstructionErrorInvalidAccountData,
		ErrInvalidInstructionData: solana.InstructionErrorInvalidInstructionData,
		ErrIncorrectProgramID:     solana.InstructionErrorIncorrectProgramID,
	} {
		assert.True(t, expected.Code >= firstBuiltinCode)
		assert.Equal(t, key, expected.ErrorKey())
		assert.Nil(t, expected.CustomError())
	}
}

func TestErrorFromTransactionError(t *testing.T) {
	assert.Nil(t, ErrorFromTransactionError(nil))
	assert.Nil(t, ErrorFromTransactionError(solana.NewTransactionError(solana.TransactionErrorSignatureFailure)))

	for _, tc := range []struct {
		err      error
		expected *Error
	}{
		{ErrUnauthorized, ErrUnauthorized},
		{solana.CustomError(3), ErrUnsupportedMint},
		{solana.CustomError(42), nil},
		{solana.InstructionErrorMissingRequiredSignature, ErrMissingSignature},
		{solana.InstructionErrorIllegalOwner, ErrUnauthorized},
		{solana.InstructionErrorInvalidAccountData, ErrCorrupt},
		{solana.InstructionErrorInvalidInstructionData, ErrInvalidInstructionData},
		{solana.InstructionErrorAccountDataTooSmall, nil},
	} {
		txErr, err := solana.TransactionErrorFromInstructionError(&solana.InstructionError{Index: 1, Err: tc.err})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ErrorFromTransactionError(txErr), tc.err.Error())
	}

	// Errors parsed back from an RPC response carry only the code.
	txErr, err := solana.ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{float64(0), map[string]interface{}{"Custom": float64(6)}},
	})
	require.NoError(t, err)
	assert.Equal(t, ErrInsufficientFunds, ErrorFromTransactionError(txErr))
}

func TestErrorIs(t *testing.T) {
	detailed := withDetail(ErrCorrupt, "bad length")
	assert.Equal(t, "vault account data corrupt: bad length", detailed.Error())
	assert.True(t, errors.Is(detailed, ErrCorrupt))
	assert.False(t, errors.Is(detailed, ErrTypeMismatch))
	assert.Equal(t, "vault account data corrupt", ErrCorrupt.Message)

	wrapped := errors.Wrap(ErrNotInitialized, "reward")
	assert.True(t, errors.Is(wrapped, ErrNotInitialized))
	assert.Equal(t, KindLifecycle, KindOf(wrapped))
	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
	assert.Equal(t, "lifecycle", KindLifecycle.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestCodecError(t *testing.T) {
	assert.Equal(t, ErrTypeMismatch, codecError(binary.ErrTypeMismatch))

	err := codecError(errors.Wrap(binary.ErrCorrupt, "invalid account size"))
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Equal(t, KindIntegrity, KindOf(err))

	other := errors.New("other")
	assert.Equal(t, other, codecError(other))

	assert.Equal(t, ErrInvalidInstructionData, instructionError(rewardvault.ErrInvalidInstructionData))
	assert.Equal(t, other, instructionError(other))
}
