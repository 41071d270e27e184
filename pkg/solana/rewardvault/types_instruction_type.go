package rewardvault

type InstructionType uint8

const (
	InstructionTypeInit InstructionType = iota
	InstructionTypeReward
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInit:
		return "init"
	case InstructionTypeReward:
		return "reward"
	}
	return "unknown"
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
