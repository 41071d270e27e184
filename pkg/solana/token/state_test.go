package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	data, err := hex.DecodeString("118a08c9d4cc46c576282e0daf050bbdb04f03313e35e5db3f3def69fa1eeec42b15a9cd4bef2cd809e464570d2a6cbd9bcc64e32ea4ebbcf748757bbb3dd5bd000084e2506ce67c000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	mint, err := base58.Decode("2BU1Xgyzqixhjaq9Pa5cNsaa1gSejLeNtDaDRv29qoZm")
	require.NoError(t, err)

	var a Account
	require.True(t, a.Unmarshal(data))
	assert.Equal(t, mint, []byte(a.Mint))
	assert.Equal(t, uint64(9e13*1e5), a.Amount)
	assert.Equal(t, AccountStateInitialized, a.State)
	assert.Empty(t, a.Delegate)
	assert.Empty(t, a.CloseAuthority)

	var rtt Account
	require.True(t, rtt.Unmarshal(a.Marshal()))
	assert.Equal(t, a, rtt)

	assert.False(t, rtt.Unmarshal(data[:AccountSize-1]))
}

func filled(b byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func TestAccountRoundTrip(t *testing.T) {
	isNative := uint64(2)
	expected := Account{
		Mint:           filled(1),
		Owner:          filled(2),
		Amount:         10,
		Delegate:       filled(3),
		State:          AccountStateFrozen,
		IsNative:       &isNative,
		CloseAuthority: filled(4),
	}

	var actual Account
	require.True(t, actual.Unmarshal(expected.Marshal()))
	assert.Equal(t, expected, actual)
}

func TestAccountUnmarshal_InvalidState(t *testing.T) {
	a := Account{Mint: filled(1), Owner: filled(2), State: AccountStateInitialized}
	b := a.Marshal()
	b[108] = 7

	var actual Account
	assert.False(t, actual.Unmarshal(b))
}

func TestMintRoundTrip(t *testing.T) {
	for _, expected := range []Mint{
		{
			MintAuthority:   filled(1),
			Supply:          1_000_000,
			Decimals:        6,
			IsInitialized:   true,
			FreezeAuthority: filled(2),
		},
		{
			Supply:        42,
			Decimals:      9,
			IsInitialized: true,
		},
	} {
		b := expected.Marshal()
		require.Len(t, b, MintSize)

		var actual Mint
		require.True(t, actual.Unmarshal(b))
		assert.Equal(t, expected, actual)
	}

	var m Mint
	assert.False(t, m.Unmarshal(make([]byte, MintSize+1)))
}
