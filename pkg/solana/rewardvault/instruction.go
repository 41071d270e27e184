package rewardvault

import (
	"github.com/code-payments/reward-vault/pkg/solana/binary"
)

// DecodedInstruction is a parsed instruction payload. Reward is only set for
// InstructionTypeReward.
type DecodedInstruction struct {
	Type   InstructionType
	Reward *RewardInstructionArgs
}

// DecodeInstruction parses a one byte tag followed by the tag's exact
// payload. Anything else is ErrInvalidInstructionData.
func DecodeInstruction(data []byte) (*DecodedInstruction, error) {
	if len(data) == 0 {
		return nil, ErrInvalidInstructionData
	}

	switch InstructionType(data[0]) {
	case InstructionTypeInit:
		if len(data) != 1 {
			return nil, ErrInvalidInstructionData
		}
		return &DecodedInstruction{Type: InstructionTypeInit}, nil
	case InstructionTypeReward:
		if len(data) != 1+RewardInstructionArgsSize {
			return nil, ErrInvalidInstructionData
		}

		offset := 1
		var args RewardInstructionArgs
		binary.GetUint64(data, &args.Amount, &offset)

		return &DecodedInstruction{Type: InstructionTypeReward, Reward: &args}, nil
	default:
		return nil, ErrInvalidInstructionData
	}
}
