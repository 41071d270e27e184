package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/reward-vault/pkg/ledger/account"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
	"github.com/code-payments/reward-vault/pkg/solana/system"
)

// maxInvokeDepth bounds the instruction stack, top level instruction included.
const maxInvokeDepth = 4

// accountState is the transaction's working copy of one account.
type accountState struct {
	key        ed25519.PublicKey
	owner      ed25519.PublicKey
	lamports   uint64
	data       []byte
	executable bool

	// nil when the account did not exist before the transaction
	original *account.Record
}

func (s *accountState) toRecord(slot uint64) *account.Record {
	record := &account.Record{
		Address:    base58.Encode(s.key),
		Owner:      base58.Encode(s.owner),
		Lamports:   s.lamports,
		Data:       s.data,
		Executable: s.executable,
		Slot:       slot,
	}
	if s.original != nil {
		record.Id = s.original.Id
	}
	return record
}

func (s *accountState) isEmpty() bool {
	return s.lamports == 0 && len(s.data) == 0 && bytes.Equal(s.owner, system.ProgramKey)
}

// transaction holds the working set of accounts for one Submit call. Nothing
// reaches the store until commit.
type transaction struct {
	ledger  *Ledger
	rent    system.Rent
	signers []ed25519.PublicKey

	states map[string]*accountState
	order  []string
}

// frame is one entry of the instruction stack.
type frame struct {
	program ed25519.PublicKey
	depth   int

	// deduplicated per address, in first-seen order
	infos   map[string]*runtime.AccountInfo
	ordered []*runtime.AccountInfo
}

func newTransaction(l *Ledger, rent system.Rent, signers []ed25519.PublicKey) *transaction {
	return &transaction{
		ledger:  l,
		rent:    rent,
		signers: signers,
		states:  make(map[string]*accountState),
	}
}

func (tx *transaction) isSigner(key ed25519.PublicKey) bool {
	for _, signer := range tx.signers {
		if bytes.Equal(signer, key) {
			return true
		}
	}
	return false
}

func (tx *transaction) load(ctx context.Context, key ed25519.PublicKey) (*accountState, error) {
	address := base58.Encode(key)
	if state, ok := tx.states[address]; ok {
		return state, nil
	}

	state := &accountState{
		key:   key,
		owner: system.ProgramKey,
	}

	record, err := tx.ledger.store.Get(ctx, address)
	switch err {
	case nil:
		owner, err := base58.Decode(record.Owner)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid owner stored for %s", address)
		}

		state.owner = owner
		state.lamports = record.Lamports
		state.data = record.Data
		state.executable = record.Executable
		state.original = record
	case account.ErrAccountNotFound:
	default:
		return nil, errors.Wrapf(err, "error loading account %s", address)
	}

	if _, ok := tx.ledger.programs[address]; ok {
		state.executable = true
	}

	tx.states[address] = state
	tx.order = append(tx.order, address)
	return state, nil
}

// execute runs a top level instruction.
func (tx *transaction) execute(ctx context.Context, ix solana.Instruction) error {
	if _, ok := tx.ledger.programs[base58.Encode(ix.Program)]; !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	privileges := func(meta solana.AccountMeta) (bool, bool, error) {
		return meta.IsSigner, meta.IsWritable, nil
	}
	return tx.run(ctx, nil, ix, privileges)
}

// invoke runs ix as a nested instruction of caller. pdaSigners are the
// addresses the calling program vouched for with signer seeds.
func (tx *transaction) invoke(ctx context.Context, caller *frame, ix solana.Instruction, pdaSigners []ed25519.PublicKey) error {
	if caller.depth+1 > maxInvokeDepth {
		return solana.InstructionErrorCallDepth
	}
	if _, ok := caller.infos[base58.Encode(ix.Program)]; !ok {
		return solana.InstructionErrorMissingAccount
	}
	if _, ok := tx.ledger.programs[base58.Encode(ix.Program)]; !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	privileges := func(meta solana.AccountMeta) (bool, bool, error) {
		info, ok := caller.infos[base58.Encode(meta.PublicKey)]
		if !ok {
			return false, false, solana.InstructionErrorMissingAccount
		}

		if meta.IsWritable && !info.IsWritable {
			return false, false, solana.InstructionErrorPrivilegeEscalation
		}

		if meta.IsSigner && !info.IsSigner {
			var signed bool
			for _, pda := range pdaSigners {
				if bytes.Equal(pda, meta.PublicKey) {
					signed = true
					break
				}
			}
			if !signed {
				return false, false, solana.InstructionErrorPrivilegeEscalation
			}
		}

		return meta.IsSigner, meta.IsWritable, nil
	}

	// The caller's writes so far are settled before the callee observes them.
	if err := tx.sync(caller); err != nil {
		return err
	}

	if err := tx.run(ctx, caller, ix, privileges); err != nil {
		return err
	}

	tx.refresh(caller)
	return nil
}

func (tx *transaction) run(
	ctx context.Context,
	caller *frame,
	ix solana.Instruction,
	privileges func(meta solana.AccountMeta) (isSigner, isWritable bool, err error),
) error {
	f := &frame{
		program: ix.Program,
		depth:   1,
		infos:   make(map[string]*runtime.AccountInfo),
	}
	if caller != nil {
		f.depth = caller.depth + 1
	}

	accounts := make([]*runtime.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		isSigner, isWritable, err := privileges(meta)
		if err != nil {
			return err
		}

		address := base58.Encode(meta.PublicKey)
		info, ok := f.infos[address]
		if !ok {
			state, err := tx.load(ctx, meta.PublicKey)
			if err != nil {
				return err
			}

			info = &runtime.AccountInfo{
				Key:      state.key,
				Owner:    state.owner,
				Lamports: state.lamports,
				Data:     cloneBytes(state.data),
			}
			f.infos[address] = info
			f.ordered = append(f.ordered, info)
		}

		info.IsSigner = info.IsSigner || isSigner
		info.IsWritable = info.IsWritable || isWritable
		accounts[i] = info
	}

	program := tx.ledger.programs[base58.Encode(ix.Program)]
	if err := program.Process(ctx, &invoker{tx: tx, frame: f}, ix.Program, accounts, ix.Data); err != nil {
		if caller == nil {
			return err
		}
		return invokedProgramError(ix.Program, err)
	}

	return tx.sync(f)
}

// sync validates the changes f made to its accounts and writes them into the
// working set.
func (tx *transaction) sync(f *frame) error {
	var before, after uint64

	for _, info := range f.ordered {
		state := tx.states[base58.Encode(info.Key)]
		ownedByProgram := bytes.Equal(state.owner, f.program)

		before += state.lamports
		after += info.Lamports

		if !bytes.Equal(info.Owner, state.owner) {
			if !ownedByProgram || !info.IsWritable || !isZeroed(info.Data) {
				return solana.InstructionErrorModifiedProgramID
			}
		}

		if info.Lamports != state.lamports {
			if !info.IsWritable {
				return solana.InstructionErrorReadonlyLamportChange
			}
			if info.Lamports < state.lamports && !ownedByProgram {
				return solana.InstructionErrorExternalAccountLamportSpend
			}
		}

		if !bytes.Equal(info.Data, state.data) || len(info.Data) != len(state.data) {
			if !info.IsWritable {
				return solana.InstructionErrorReadonlyDataModified
			}
			if !ownedByProgram {
				return solana.InstructionErrorExternalAccountDataModified
			}
		}
	}

	if before != after {
		return solana.InstructionErrorUnbalancedInstruction
	}

	for _, info := range f.ordered {
		state := tx.states[base58.Encode(info.Key)]
		state.owner = info.Owner
		state.lamports = info.Lamports
		state.data = cloneBytes(info.Data)
	}
	return nil
}

// refresh makes the callee's settled writes visible through the caller's
// account views.
func (tx *transaction) refresh(f *frame) {
	for _, info := range f.ordered {
		state := tx.states[base58.Encode(info.Key)]
		info.Owner = state.owner
		info.Lamports = state.lamports
		info.Data = cloneBytes(state.data)
	}
}

// changes returns the records to persist, skipping accounts that were never
// created or that are unchanged.
func (tx *transaction) changes(slot uint64) []*account.Record {
	var records []*account.Record
	for _, address := range tx.order {
		state := tx.states[address]
		if state.original == nil && state.isEmpty() {
			continue
		}

		record := state.toRecord(slot)
		if state.original != nil && state.original.Equal(record) {
			continue
		}
		records = append(records, record)
	}
	return records
}

type invoker struct {
	tx    *transaction
	frame *frame
}

func (i *invoker) Invoke(ctx context.Context, ix solana.Instruction, signers ...runtime.SignerSeeds) error {
	pdaSigners := make([]ed25519.PublicKey, 0, len(signers))
	for _, seeds := range signers {
		pda, err := solana.CreateProgramAddress(i.frame.program, seeds...)
		if err != nil {
			return solana.InstructionErrorInvalidSeeds
		}
		pdaSigners = append(pdaSigners, pda)
	}

	return i.tx.invoke(ctx, i.frame, ix, pdaSigners)
}

func (i *invoker) Rent() system.Rent {
	return i.tx.rent
}

// invokedProgramError attributes err to the innermost program that raised it.
func invokedProgramError(program ed25519.PublicKey, err error) error {
	var invoked solana.InvokedProgramError
	if errors.As(err, &invoked) {
		return err
	}
	return solana.InvokedProgramError{Program: program, Err: err}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cloned := make([]byte, len(b))
	copy(cloned, b)
	return cloned
}

func isZeroed(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
