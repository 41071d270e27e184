// Package ledger is a single-node ledger that executes instructions against
// accounts held in an account.Store. It runs the system, token and associated
// token account programs natively and any registered runtime.Program
// alongside them.
package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/reward-vault/pkg/ledger/account"
	"github.com/code-payments/reward-vault/pkg/metrics"
	"github.com/code-payments/reward-vault/pkg/rate"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/system"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

const (
	metricsStructName = "ledger"
)

var (
	ErrProgramAlreadyRegistered = errors.New("program already registered")
	ErrAirdropTooLarge          = errors.New("airdrop exceeds maximum")
	ErrAirdropRateLimited       = errors.New("airdrop rate limited")
	ErrAirdropOverflow          = errors.New("airdrop overflows account balance")
	ErrNoInstructions           = errors.New("transaction has no instructions")
)

// Ledger executes transactions one at a time. Each transaction either commits
// every account it changed or none of them.
type Ledger struct {
	log   *logrus.Entry
	conf  *conf
	store account.Store

	airdropLimiter rate.Limiter

	mu       sync.Mutex
	slot     uint64
	programs map[string]runtime.Program
}

func New(store account.Store, configProvider ConfigProvider) *Ledger {
	ctx := context.Background()
	configs := configProvider()

	l := &Ledger{
		log:   logrus.StandardLogger().WithField("type", "ledger"),
		conf:  configs,
		store: store,
		airdropLimiter: rate.New(
			configs.airdropsPerSecond.Get(ctx),
			int(configs.airdropBurst.Get(ctx)),
		),
		programs: make(map[string]runtime.Program),
	}

	l.programs[base58.Encode(system.ProgramKey)] = runtime.ProgramFunc(processSystem)
	l.programs[base58.Encode(token.ProgramKey)] = runtime.ProgramFunc(processToken)
	l.programs[base58.Encode(token.AssociatedTokenAccountProgramKey)] = runtime.ProgramFunc(processAssociatedTokenAccount)

	return l
}

// RegisterProgram routes instructions addressed to programID to program.
func (l *Ledger) RegisterProgram(programID ed25519.PublicKey, program runtime.Program) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	address := base58.Encode(programID)
	if _, ok := l.programs[address]; ok {
		return ErrProgramAlreadyRegistered
	}

	l.programs[address] = program
	return nil
}

// Rent returns the rent configuration transactions currently execute with.
func (l *Ledger) Rent(ctx context.Context) system.Rent {
	return system.Rent{
		LamportsPerByteYear: l.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  l.conf.rentExemptionThreshold.Get(ctx),
	}
}

// Slot returns the number of transactions committed since the ledger was
// created.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.slot
}

// Submit executes instructions in order as a single transaction signed by
// signers. Instruction failures are returned as a *solana.TransactionError
// identifying the failing instruction.
func (l *Ledger) Submit(ctx context.Context, signers []ed25519.PublicKey, instructions ...solana.Instruction) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Submit")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if len(instructions) == 0 {
		return ErrNoInstructions
	}

	if err := verifySignatures(signers, instructions); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.log.WithFields(logrus.Fields{
		"method":       "Submit",
		"slot":         l.slot + 1,
		"instructions": len(instructions),
	})

	start := time.Now()
	tx := newTransaction(l, l.Rent(ctx), signers)
	for i, ix := range instructions {
		if err := tx.execute(ctx, ix); err != nil {
			log.WithError(err).WithField("index", i).Debug("instruction failed")

			txErr, convErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
				Index: i,
				Err:   err,
			})
			if convErr != nil {
				return errors.Wrap(err, "instruction failed")
			}
			return txErr
		}
	}

	records := tx.changes(l.slot + 1)
	if err := l.store.PutAll(ctx, records...); err != nil {
		log.WithError(err).Warn("failure committing transaction")
		return errors.Wrap(err, "error committing transaction")
	}

	l.slot++
	log.WithField("accounts", len(records)).Debug("transaction committed")
	metrics.RecordCount(ctx, "LedgerTransactionCommitted", 1)
	metrics.RecordDuration(ctx, "LedgerTransactionDuration", time.Since(start))
	return nil
}

// verifySignatures requires a signature for every signer account referenced
// at the top level. Signers must be real keys, never derived addresses.
func verifySignatures(signers []ed25519.PublicKey, instructions []solana.Instruction) error {
	for _, signer := range signers {
		if !solana.IsOnCurve(signer) {
			return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}

			var signed bool
			for _, signer := range signers {
				if bytes.Equal(signer, meta.PublicKey) {
					signed = true
					break
				}
			}
			if !signed {
				return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
			}
		}
	}

	return nil
}

// Airdrop credits lamports to address, creating it as a system account if
// needed. Airdrops are rate limited per recipient.
func (l *Ledger) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	if lamports > l.conf.maxAirdropLamports.Get(ctx) {
		return ErrAirdropTooLarge
	}
	if !l.airdropLimiter.Allow(base58.Encode(address)) {
		return ErrAirdropRateLimited
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, err := l.store.Get(ctx, base58.Encode(address))
	if err == account.ErrAccountNotFound {
		record = &account.Record{
			Address: base58.Encode(address),
			Owner:   base58.Encode(system.ProgramKey),
		}
	} else if err != nil {
		return errors.Wrap(err, "error getting account")
	}

	if lamports > account.MaxLamports-record.Lamports {
		return ErrAirdropOverflow
	}

	record.Lamports += lamports
	record.Slot = l.slot + 1
	if err := l.store.PutAll(ctx, record); err != nil {
		return errors.Wrap(err, "error saving account")
	}

	l.slot++
	l.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	}).Debug("airdropped lamports")
	return nil
}

// GetAccountInfo returns the committed state of an account. Accounts with no
// lamports and no data do not exist. The commitment is ignored since every
// committed transaction is final.
func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	record, err := l.store.Get(context.Background(), base58.Encode(address))
	if err == account.ErrAccountNotFound {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	} else if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "error getting account")
	}

	if record.Lamports == 0 && len(record.Data) == 0 {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "invalid owner")
	}

	return solana.AccountInfo{
		Data:       record.Data,
		Owner:      owner,
		Lamports:   record.Lamports,
		Executable: record.Executable,
	}, nil
}

// GetBalance returns the lamport balance of an account.
func (l *Ledger) GetBalance(address ed25519.PublicKey) (uint64, error) {
	info, err := l.GetAccountInfo(address, solana.CommitmentFinalized)
	if err == solana.ErrNoAccountInfo {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return info.Lamports, nil
}
