package vault

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/reward-vault/pkg/ledger/account"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
)

func TestInspect(t *testing.T) {
	env := setup(t)

	info, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, info.State)
	assert.EqualValues(t, env.vaultAddress, info.Authority.Address)
	assert.Nil(t, info.Record)

	env.initVault(t)
	env.mintTo(t, env.mint, env.vaultAta, 250)

	info, err = Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, info.State)
	require.NotNil(t, info.Record)
	assert.EqualValues(t, env.mint, info.Record.Mint)
	assert.EqualValues(t, env.authority, info.Record.Authority)
	assert.EqualValues(t, env.vaultAta, info.TokenAccount)
	assert.EqualValues(t, 250, info.Balance)
	assert.Equal(t, "initialized", info.State.String())
}

func TestInspect_MissingTokenAccount(t *testing.T) {
	env := setup(t)

	env.putVaultRecord(t, env.programID, env.vaultData(t, &rewardvault.VaultAccount{
		Mint:      env.mint,
		Authority: env.authority,
	}))

	info, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateMissingTokenAccount, info.State)
	assert.EqualValues(t, env.vaultAta, info.TokenAccount)
	assert.Zero(t, info.Balance)

	// The token account can be created directly to finish the vault.
	env.createTokenAccount(t, env.vaultAddress, env.mint)

	info, err = Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, info.State)
}

func TestInspect_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name     string
		owner    func(env *testEnv) ed25519.PublicKey
		data     func(t *testing.T, env *testEnv) []byte
		expected *Error
	}{
		{
			name:  "wrong owner",
			owner: func(env *testEnv) ed25519.PublicKey { return env.authority },
			data: func(t *testing.T, env *testEnv) []byte {
				return env.vaultData(t, &rewardvault.VaultAccount{Mint: env.mint, Authority: env.authority})
			},
			expected: ErrCorrupt,
		},
		{
			name: "wrong discriminator",
			data: func(t *testing.T, env *testEnv) []byte {
				data := env.vaultData(t, &rewardvault.VaultAccount{Mint: env.mint, Authority: env.authority})
				data[0] = 1
				return data
			},
			expected: ErrTypeMismatch,
		},
		{
			name: "truncated",
			data: func(t *testing.T, env *testEnv) []byte {
				return env.vaultData(t, &rewardvault.VaultAccount{Mint: env.mint, Authority: env.authority})[:40]
			},
			expected: ErrCorrupt,
		},
		{
			name: "token account owned by another program",
			data: func(t *testing.T, env *testEnv) []byte {
				require.NoError(t, env.ledger.Airdrop(env.ctx, env.vaultAta, 1))
				return env.vaultData(t, &rewardvault.VaultAccount{Mint: env.mint, Authority: env.authority})
			},
			expected: ErrInvalidTokenAccount,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)

			owner := env.programID
			if tc.owner != nil {
				owner = tc.owner(env)
			}
			env.putVaultRecord(t, owner, tc.data(t, env))

			_, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
			assert.True(t, errors.Is(err, tc.expected), "unexpected error: %v", err)
		})
	}
}

func (e *testEnv) vaultData(t *testing.T, record *rewardvault.VaultAccount) []byte {
	data := make([]byte, rewardvault.VaultAccountSize)
	require.NoError(t, rewardvault.VaultAccountCodec.Initialize(data, record))
	return data
}

// putVaultRecord writes the vault account straight to the store, as if it
// had been left behind by an earlier deployment.
func (e *testEnv) putVaultRecord(t *testing.T, owner ed25519.PublicKey, data []byte) {
	require.NoError(t, e.store.PutAll(e.ctx, &account.Record{
		Address:  base58.Encode(e.vaultAddress),
		Owner:    base58.Encode(owner),
		Lamports: e.ledger.Rent(e.ctx).MinimumBalance(uint64(len(data))),
		Data:     data,
	}))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "missing_token_account", StateMissingTokenAccount.String())
	assert.Equal(t, "unknown", State(-1).String())
}
