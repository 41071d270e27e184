// Package vault implements the reward vault program: a single program-owned
// account, bound to one mint and one authority, that pays out from its
// associated token account when the authority asks.
package vault

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/reward-vault/pkg/metrics"
	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
)

// Processor executes reward vault instructions for a single program id.
type Processor struct {
	log       *logrus.Entry
	programID ed25519.PublicKey

	deriveAuthority func(program ed25519.PublicKey) (Authority, error)
}

// NewProcessor returns a Processor that only accepts instructions addressed
// to programID.
func NewProcessor(programID ed25519.PublicKey) *Processor {
	return &Processor{
		log:             logrus.StandardLogger().WithField("type", "vault/processor"),
		programID:       programID,
		deriveAuthority: DeriveAuthority,
	}
}

// ProgramID returns the program id the processor serves.
func (p *Processor) ProgramID() ed25519.PublicKey {
	return p.programID
}

// Process implements runtime.Program.
func (p *Processor) Process(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Process")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := p.log.WithField("method", "Process")

	if !bytes.Equal(programID, p.programID) {
		log.WithField("program", base58.Encode(programID)).Debug("instruction addressed to another program")
		return ErrIncorrectProgramID
	}

	decoded, err := rewardvault.DecodeInstruction(data)
	if err != nil {
		log.WithError(err).Debug("invalid instruction data")
		return instructionError(err)
	}

	log = log.WithField("instruction", decoded.Type.String())
	tracer.AddAttributes(map[string]interface{}{
		"instruction": decoded.Type.String(),
	})

	switch decoded.Type {
	case rewardvault.InstructionTypeInit:
		err = p.processInit(ctx, log, invoker, accounts)
	case rewardvault.InstructionTypeReward:
		err = p.processReward(ctx, log, invoker, accounts, decoded.Reward.Amount)
	default:
		err = ErrInvalidInstructionData
	}

	if err != nil {
		log.WithError(err).Debug("instruction rejected")
		recordInstructionRejectedEvent(ctx, decoded.Type, err)
	}
	return err
}

// authority is recomputed on every instruction and never cached.
func (p *Processor) authority() (Authority, error) {
	return p.deriveAuthority(p.programID)
}

func requireAccounts(accounts []*runtime.AccountInfo, n int) error {
	if len(accounts) < n {
		return solana.InstructionErrorNotEnoughAccountKeys
	}
	return nil
}
