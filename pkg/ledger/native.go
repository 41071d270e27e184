package ledger

import (
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
)

// asInstruction rebuilds the instruction a native program was invoked with,
// so the client side decompilers can parse it.
func asInstruction(programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) solana.Instruction {
	metas := make([]solana.AccountMeta, len(accounts))
	for i, info := range accounts {
		metas[i] = solana.AccountMeta{
			PublicKey:  info.Key,
			IsSigner:   info.IsSigner,
			IsWritable: info.IsWritable,
		}
	}

	return solana.Instruction{
		Program:  programID,
		Accounts: metas,
		Data:     data,
	}
}

// findAccount returns the account view for key within an instruction.
func findAccount(accounts []*runtime.AccountInfo, key ed25519.PublicKey) *runtime.AccountInfo {
	for _, info := range accounts {
		if info.Key.Equal(key) {
			return info
		}
	}
	return nil
}
