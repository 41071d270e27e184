package vault

import (
	"context"

	"github.com/mr-tron/base58"

	"github.com/code-payments/reward-vault/pkg/metrics"
	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
)

const (
	metricsStructName = "vault.processor"

	instructionRejectedEventName = "VaultInstructionRejected"
	vaultInitializedEventName    = "VaultInitialized"
	rewardPaidEventName          = "VaultRewardPaid"

	rewardAmountMetricName = "VaultRewardAmount"
)

func recordInstructionRejectedEvent(ctx context.Context, instructionType rewardvault.InstructionType, err error) {
	kv := map[string]interface{}{
		"instruction": instructionType.String(),
		"error":       err.Error(),
	}
	if kind := KindOf(err); kind != 0 {
		kv["kind"] = kind.String()
	}
	metrics.RecordEvent(ctx, instructionRejectedEventName, kv)
}

func recordVaultInitializedEvent(ctx context.Context, record *rewardvault.VaultAccount) {
	metrics.RecordEvent(ctx, vaultInitializedEventName, map[string]interface{}{
		"mint":      base58.Encode(record.Mint),
		"authority": base58.Encode(record.Authority),
	})
}

func recordRewardPaidEvent(ctx context.Context, record *rewardvault.VaultAccount, amount uint64) {
	metrics.RecordEvent(ctx, rewardPaidEventName, map[string]interface{}{
		"mint":   base58.Encode(record.Mint),
		"amount": amount,
	})
	metrics.RecordCount(ctx, rewardAmountMetricName, amount)
}
