package rewardvault

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/reward-vault/pkg/solana/binary"
)

const (
	VaultAccountDiscriminator = 0

	VaultAccountHeaderSize = binary.MinHeaderSize
	VaultAccountRecordSize = (32 + // mint
		32) // authority
	VaultAccountSize = VaultAccountHeaderSize + VaultAccountRecordSize
)

// VaultAccount binds the vault to its mint and to the only signer allowed to
// release funds. Neither field changes after creation.
type VaultAccount struct {
	Mint      ed25519.PublicKey
	Authority ed25519.PublicKey
}

var VaultAccountCodec = binary.NewAccountCodec(binary.Layout[VaultAccount]{
	Discriminator: VaultAccountDiscriminator,
	HeaderSize:    VaultAccountHeaderSize,
	RecordSize:    VaultAccountRecordSize,
	Put: func(dst []byte, v *VaultAccount, offset *int) {
		binary.PutKey32(dst, v.Mint, offset)
		binary.PutKey32(dst, v.Authority, offset)
	},
	Get: func(src []byte, v *VaultAccount, offset *int) error {
		binary.GetKey32(src, &v.Mint, offset)
		binary.GetKey32(src, &v.Authority, offset)
		return nil
	},
})

func (obj *VaultAccount) Unmarshal(data []byte) error {
	decoded, err := VaultAccountCodec.Decode(data)
	if err != nil {
		return err
	}

	*obj = decoded
	return nil
}

func (obj *VaultAccount) String() string {
	return fmt.Sprintf(
		"VaultAccount{mint=%s,authority=%s}",
		base58.Encode(obj.Mint),
		base58.Encode(obj.Authority),
	)
}
