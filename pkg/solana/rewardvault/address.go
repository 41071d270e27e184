package rewardvault

import (
	"crypto/ed25519"

	"github.com/code-payments/reward-vault/pkg/solana"
	"github.com/code-payments/reward-vault/pkg/solana/token"
)

var (
	VaultPrefix = []byte("vault")
)

// GetVaultAddress derives the single vault address owned by program, along
// with the bump that makes it a valid program address.
func GetVaultAddress(program ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		program,
		VaultPrefix,
	)
}

// GetVaultTokenAccountAddress derives the vault's associated token account
// for mint.
func GetVaultTokenAccountAddress(program, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	vault, _, err := GetVaultAddress(program)
	if err != nil {
		return nil, err
	}

	return token.GetAssociatedAccount(vault, mint)
}
