package vault

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/reward-vault/pkg/ledger"
	"github.com/code-payments/reward-vault/pkg/ledger/account"
	"github.com/code-payments/reward-vault/pkg/ledger/account/memory"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
	"github.com/code-payments/reward-vault/pkg/testutil"
)

type testEnv struct {
	ctx context.Context

	store     account.Store
	ledger    *ledger.Ledger
	processor *Processor

	programID     ed25519.PublicKey
	authority     ed25519.PublicKey
	mintAuthority ed25519.PublicKey
	mint          ed25519.PublicKey
	vaultAddress  ed25519.PublicKey
	vaultAta      ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	env := &testEnv{
		ctx:           context.Background(),
		store:         memory.New(),
		programID:     testutil.NewRandomKey(t),
		authority:     testutil.NewRandomKey(t),
		mintAuthority: testutil.NewRandomKey(t),
	}

	env.ledger = ledger.New(env.store, ledger.WithEnvConfigs())
	env.processor = NewProcessor(env.programID)
	require.NoError(t, env.ledger.RegisterProgram(env.programID, env.processor))

	require.NoError(t, env.ledger.Airdrop(env.ctx, env.authority, 1_000_000_000))
	env.mint = env.createMint(t)

	var err error
	env.vaultAddress, _, err = rewardvault.GetVaultAddress(env.programID)
	require.NoError(t, err)
	env.vaultAta, err = rewardvault.GetVaultTokenAccountAddress(env.programID, env.mint)
	require.NoError(t, err)

	return env
}

func (e *testEnv) createMint(t *testing.T) ed25519.PublicKey {
	mint := testutil.NewRandomKey(t)
	rent := e.ledger.Rent(e.ctx)
	require.NoError(t, e.ledger.Submit(
		e.ctx,
		[]ed25519.PublicKey{e.authority, mint},
		system.CreateAccount(e.authority, mint, token.ProgramKey, rent.MinimumBalance(token.MintSize), token.MintSize),
		token.InitializeMint(mint, e.mintAuthority, nil, 5),
	))
	return mint
}

func (e *testEnv) createTokenAccount(t *testing.T, owner, mint ed25519.PublicKey) ed25519.PublicKey {
	create, address, err := token.CreateAssociatedTokenAccount(e.authority, owner, mint)
	require.NoError(t, err)
	require.NoError(t, e.ledger.Submit(e.ctx, []ed25519.PublicKey{e.authority}, create))
	return address
}

func (e *testEnv) mintTo(t *testing.T, mint, destination ed25519.PublicKey, amount uint64) {
	require.NoError(t, e.ledger.Submit(
		e.ctx,
		[]ed25519.PublicKey{e.mintAuthority},
		token.MintTo(mint, destination, e.mintAuthority, amount),
	))
}

func (e *testEnv) initInstruction(t *testing.T) solana.Instruction {
	accounts, err := rewardvault.NewInitInstructionAccounts(e.programID, e.authority, e.mint)
	require.NoError(t, err)
	return rewardvault.NewInitInstruction(e.programID, accounts)
}

func (e *testEnv) rewardInstruction(t *testing.T, recipient ed25519.PublicKey, amount uint64) solana.Instruction {
	accounts, err := rewardvault.NewRewardInstructionAccounts(e.programID, e.authority, e.mint, recipient)
	require.NoError(t, err)
	return rewardvault.NewRewardInstruction(e.programID, accounts, &rewardvault.RewardInstructionArgs{Amount: amount})
}

func (e *testEnv) initVault(t *testing.T) {
	require.NoError(t, e.ledger.Submit(e.ctx, []ed25519.PublicKey{e.authority}, e.initInstruction(t)))
}

func (e *testEnv) tokenBalance(t *testing.T, address ed25519.PublicKey) uint64 {
	account, err := token.NewClient(e.ledger, e.mint).GetAccount(address, solana.CommitmentFinalized)
	require.NoError(t, err)
	return account.Amount
}

func (e *testEnv) snapshot(t *testing.T, addresses ...ed25519.PublicKey) map[string]*account.Record {
	records := make(map[string]*account.Record)
	for _, address := range addresses {
		record, err := e.store.Get(e.ctx, base58.Encode(address))
		if err == account.ErrAccountNotFound {
			continue
		}
		require.NoError(t, err)
		records[base58.Encode(address)] = record
	}
	return records
}

func requireVaultError(t *testing.T, err error, expected *Error) {
	require.Error(t, err)
	assert.True(t, errors.Is(err, expected), "expected %v, got %v", expected, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, expected, ErrorFromTransactionError(txErr))
	assert.Equal(t, expected.Kind, KindOf(err))
}

func TestInit(t *testing.T) {
	env := setup(t)
	hook := testutil.CaptureLogs(t)

	env.initVault(t)

	info, err := env.ledger.GetAccountInfo(env.vaultAddress, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, env.programID, info.Owner)
	assert.Len(t, info.Data, rewardvault.VaultAccountSize)
	assert.Equal(t, env.ledger.Rent(env.ctx).MinimumBalance(rewardvault.VaultAccountSize), info.Lamports)

	record, err := rewardvault.VaultAccountCodec.Decode(info.Data)
	require.NoError(t, err)
	assert.EqualValues(t, env.mint, record.Mint)
	assert.EqualValues(t, env.authority, record.Authority)

	assert.EqualValues(t, rewardvault.VaultAccountDiscriminator, info.Data[0])
	assert.Equal(t, make([]byte, 7), info.Data[1:8])

	ata, err := token.NewClient(env.ledger, env.mint).GetAccount(env.vaultAta, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, env.vaultAddress, ata.Owner)
	assert.EqualValues(t, env.mint, ata.Mint)
	assert.Zero(t, ata.Amount)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "vault initialized" {
			found = true
			assert.Equal(t, logrus.InfoLevel, entry.Level)
		}
	}
	assert.True(t, found)
}

func TestInit_AlreadyInitialized(t *testing.T) {
	env := setup(t)
	env.initVault(t)

	before := env.snapshot(t, env.vaultAddress, env.vaultAta, env.authority)

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.initInstruction(t))
	requireVaultError(t, err, ErrAlreadyInitialized)

	// A different authority cannot take over the vault either.
	other := testutil.NewRandomKey(t)
	require.NoError(t, env.ledger.Airdrop(env.ctx, other, 1_000_000_000))
	accounts, err := rewardvault.NewInitInstructionAccounts(env.programID, other, env.mint)
	require.NoError(t, err)
	err = env.ledger.Submit(env.ctx, []ed25519.PublicKey{other}, rewardvault.NewInitInstruction(env.programID, accounts))
	requireVaultError(t, err, ErrAlreadyInitialized)

	assert.Equal(t, before, env.snapshot(t, env.vaultAddress, env.vaultAta, env.authority))
}

func TestInit_IncorrectAddress(t *testing.T) {
	env := setup(t)

	ix := env.initInstruction(t)
	ix.Accounts[2].PublicKey = testutil.NewRandomKey(t)

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, ix)
	requireVaultError(t, err, ErrIncorrectAddress)

	_, err = env.ledger.GetAccountInfo(env.vaultAddress, solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrNoAccountInfo, err)
}

func TestInit_MissingSignature(t *testing.T) {
	env := setup(t)

	ix := env.initInstruction(t)
	ix.Accounts[0].IsSigner = false

	err := env.ledger.Submit(env.ctx, nil, ix)
	requireVaultError(t, err, ErrMissingSignature)
}

func TestInit_InvalidMint(t *testing.T) {
	env := setup(t)
	lamports, err := env.ledger.GetBalance(env.authority)
	require.NoError(t, err)

	accounts, err := rewardvault.NewInitInstructionAccounts(env.programID, env.authority, testutil.NewRandomKey(t))
	require.NoError(t, err)

	// The associated token account program rejects the mint, which rolls
	// back the vault account created earlier in the same instruction.
	err = env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, rewardvault.NewInitInstruction(env.programID, accounts))
	txErr := mustTransactionError(t, err)
	assert.Equal(t, solana.InvokedProgramError{
		Program: token.AssociatedTokenAccountProgramKey,
		Err:     solana.InstructionErrorIncorrectProgramID,
	}, txErr.InstructionError().Err)
	assert.Equal(t, solana.InstructionErrorIncorrectProgramID, txErr.InstructionError().ErrorKey())
	assert.False(t, errors.Is(err, ErrIncorrectProgramID))
	assert.Nil(t, ErrorFromTransactionError(txErr))

	_, err = env.ledger.GetAccountInfo(env.vaultAddress, solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	after, err := env.ledger.GetBalance(env.authority)
	require.NoError(t, err)
	assert.Equal(t, lamports, after)

	info, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, info.State)
}

func TestInit_FundedVaultAddress(t *testing.T) {
	env := setup(t)

	// Lamports sent to the vault address ahead of Init make the system
	// program refuse to create the account.
	require.NoError(t, env.ledger.Airdrop(env.ctx, env.vaultAddress, 1))

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.initInstruction(t))
	txErr := mustTransactionError(t, err)
	assert.Equal(t, 0, txErr.InstructionError().Index)
	assert.True(t, errors.Is(err, system.ErrorAccountAlreadyInUse))
	assert.Nil(t, ErrorFromTransactionError(txErr))
	assert.False(t, errors.Is(err, ErrIncorrectAddress))
	assert.Zero(t, KindOf(err))

	encoded, err := txErr.JSONString()
	require.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[0,{"Custom":0}]}`, encoded)

	info, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, info.State)
}

func TestInit_ExistingTokenAccount(t *testing.T) {
	env := setup(t)

	// Anyone can create the vault's associated account before Init.
	require.Equal(t, env.vaultAta, env.createTokenAccount(t, env.vaultAddress, env.mint))
	env.mintTo(t, env.mint, env.vaultAta, 10)

	env.initVault(t)

	info, err := Inspect(env.ctx, env.ledger, env.programID, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, info.State)
	assert.EqualValues(t, 10, env.tokenBalance(t, env.vaultAta))
}

func TestReward(t *testing.T) {
	env := setup(t)
	env.initVault(t)
	env.mintTo(t, env.mint, env.vaultAta, 500)

	recipient := testutil.NewRandomKey(t)
	destination := env.createTokenAccount(t, recipient, env.mint)

	require.NoError(t, env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.rewardInstruction(t, recipient, 100)))
	assert.EqualValues(t, 400, env.tokenBalance(t, env.vaultAta))
	assert.EqualValues(t, 100, env.tokenBalance(t, destination))

	// The full remaining balance can be paid out.
	require.NoError(t, env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.rewardInstruction(t, recipient, 400)))
	assert.EqualValues(t, 0, env.tokenBalance(t, env.vaultAta))
	assert.EqualValues(t, 500, env.tokenBalance(t, destination))

	// Several rewards in one transaction apply in order.
	env.mintTo(t, env.mint, env.vaultAta, 30)
	require.NoError(t, env.ledger.Submit(
		env.ctx,
		[]ed25519.PublicKey{env.authority},
		env.rewardInstruction(t, recipient, 10),
		env.rewardInstruction(t, recipient, 20),
	))
	assert.EqualValues(t, 0, env.tokenBalance(t, env.vaultAta))
	assert.EqualValues(t, 530, env.tokenBalance(t, destination))
}

func TestReward_Unauthorized(t *testing.T) {
	env := setup(t)
	env.initVault(t)
	env.mintTo(t, env.mint, env.vaultAta, 500)

	recipient := testutil.NewRandomKey(t)
	destination := env.createTokenAccount(t, recipient, env.mint)

	other := testutil.NewRandomKey(t)
	accounts, err := rewardvault.NewRewardInstructionAccounts(env.programID, other, env.mint, recipient)
	require.NoError(t, err)

	err = env.ledger.Submit(
		env.ctx,
		[]ed25519.PublicKey{other},
		rewardvault.NewRewardInstruction(env.programID, accounts, &rewardvault.RewardInstructionArgs{Amount: 100}),
	)
	requireVaultError(t, err, ErrUnauthorized)

	assert.EqualValues(t, 500, env.tokenBalance(t, env.vaultAta))
	assert.EqualValues(t, 0, env.tokenBalance(t, destination))
}

func TestReward_Validation(t *testing.T) {
	env := setup(t)
	env.initVault(t)
	env.mintTo(t, env.mint, env.vaultAta, 500)

	recipient := testutil.NewRandomKey(t)
	destination := env.createTokenAccount(t, recipient, env.mint)

	otherMint := env.createMint(t)
	env.createTokenAccount(t, env.vaultAddress, otherMint)
	env.createTokenAccount(t, recipient, otherMint)

	for _, tc := range []struct {
		name     string
		amount   uint64
		modify   func(t *testing.T, ix *solana.Instruction)
		signers  []ed25519.PublicKey
		expected *Error
	}{
		{
			name:     "zero amount",
			amount:   0,
			expected: ErrInvalidAmount,
		},
		{
			name:     "insufficient funds",
			amount:   501,
			expected: ErrInsufficientFunds,
		},
		{
			name:   "missing signature",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				ix.Accounts[0].IsSigner = false
			},
			signers:  []ed25519.PublicKey{},
			expected: ErrMissingSignature,
		},
		{
			name:   "incorrect vault",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = testutil.NewRandomKey(t)
			},
			expected: ErrIncorrectAddress,
		},
		{
			name:   "destination not a token account",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				ix.Accounts[4].PublicKey = env.authority
			},
			expected: ErrInvalidTokenAccount,
		},
		{
			name:   "vault token account not a token account",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				ix.Accounts[3].PublicKey = testutil.NewRandomKey(t)
			},
			expected: ErrInvalidTokenAccount,
		},
		{
			name:   "unsupported mint",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				accounts, err := rewardvault.NewRewardInstructionAccounts(env.programID, env.authority, otherMint, recipient)
				require.NoError(t, err)
				ix.Accounts[1].PublicKey = otherMint
				ix.Accounts[3].PublicKey = accounts.VaultAta
				ix.Accounts[4].PublicKey = accounts.Destination
			},
			expected: ErrUnsupportedMint,
		},
		{
			name:   "invalid instruction data",
			amount: 1,
			modify: func(t *testing.T, ix *solana.Instruction) {
				ix.Data = ix.Data[:5]
			},
			expected: ErrInvalidInstructionData,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ix := env.rewardInstruction(t, recipient, tc.amount)
			if tc.modify != nil {
				tc.modify(t, &ix)
			}

			signers := []ed25519.PublicKey{env.authority}
			if tc.signers != nil {
				signers = tc.signers
			}

			before := env.snapshot(t, env.vaultAddress, env.vaultAta, destination)

			err := env.ledger.Submit(env.ctx, signers, ix)
			requireVaultError(t, err, tc.expected)

			assert.Equal(t, before, env.snapshot(t, env.vaultAddress, env.vaultAta, destination))
		})
	}

	assert.EqualValues(t, 500, env.tokenBalance(t, env.vaultAta))
	assert.EqualValues(t, 0, env.tokenBalance(t, destination))
}

func TestReward_NotInitialized(t *testing.T) {
	env := setup(t)

	recipient := testutil.NewRandomKey(t)
	env.createTokenAccount(t, recipient, env.mint)
	env.createTokenAccount(t, env.vaultAddress, env.mint)

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.rewardInstruction(t, recipient, 1))
	requireVaultError(t, err, ErrNotInitialized)
}

func TestReward_CorruptVault(t *testing.T) {
	env := setup(t)
	env.initVault(t)

	recipient := testutil.NewRandomKey(t)
	env.createTokenAccount(t, recipient, env.mint)

	record, err := env.store.Get(env.ctx, base58.Encode(env.vaultAddress))
	require.NoError(t, err)

	record.Data[0] = 7
	require.NoError(t, env.store.PutAll(env.ctx, record))

	err = env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.rewardInstruction(t, recipient, 1))
	require.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Equal(t, KindIntegrity, KindOf(err))
}

func TestProcess_WrongProgram(t *testing.T) {
	env := setup(t)

	otherProgram := testutil.NewRandomKey(t)
	require.NoError(t, env.ledger.RegisterProgram(otherProgram, env.processor))

	accounts, err := rewardvault.NewInitInstructionAccounts(otherProgram, env.authority, env.mint)
	require.NoError(t, err)

	err = env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, rewardvault.NewInitInstruction(otherProgram, accounts))
	requireVaultError(t, err, ErrIncorrectProgramID)
}

func TestProcess_NotEnoughAccounts(t *testing.T) {
	env := setup(t)

	ix := env.initInstruction(t)
	ix.Accounts = ix.Accounts[:7]

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, ix)
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.InstructionErrorNotEnoughAccountKeys, txErr.InstructionError().Err)
}

func TestProcess_AuthorityRecomputed(t *testing.T) {
	env := setup(t)

	env.processor.deriveAuthority = func(ed25519.PublicKey) (Authority, error) {
		return Authority{Address: testutil.NewRandomKey(t), Bump: 255}, nil
	}

	err := env.ledger.Submit(env.ctx, []ed25519.PublicKey{env.authority}, env.initInstruction(t))
	requireVaultError(t, err, ErrIncorrectAddress)

	env.processor.deriveAuthority = DeriveAuthority
	env.initVault(t)
}

func mustTransactionError(t *testing.T, err error) *solana.TransactionError {
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	return txErr
}
