package vault

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/reward-vault/pkg/solana/rewardvault"
	"github.com/code-payments/reward-vault/pkg/solana/runtime"
)

// Authority is the vault's derived address together with the bump that
// proves it. It is the only way the processor signs on the vault's behalf.
type Authority struct {
	Address ed25519.PublicKey
	Bump    uint8
}

// DeriveAuthority recomputes the vault authority for program. Failure means
// the program id has no viable bump, which is a deployment error.
func DeriveAuthority(program ed25519.PublicKey) (Authority, error) {
	address, bump, err := rewardvault.GetVaultAddress(program)
	if err != nil {
		return Authority{}, errors.Wrap(err, "error deriving vault address")
	}

	return Authority{
		Address: address,
		Bump:    bump,
	}, nil
}

// SignerSeeds are the seeds handed to the host when invoking with the
// vault's signature.
func (a Authority) SignerSeeds() runtime.SignerSeeds {
	return runtime.SignerSeeds{
		rewardvault.VaultPrefix,
		{a.Bump},
	}
}

// Matches reports whether address is the vault address.
func (a Authority) Matches(address ed25519.PublicKey) bool {
	return bytes.Equal(a.Address, address)
}

func (a Authority) String() string {
	return base58.Encode(a.Address)
}
