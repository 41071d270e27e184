package binary

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalFields(t *testing.T) {
	key := ed25519.PublicKey(bytes.Repeat([]byte{9}, ed25519.PublicKeySize))
	value := uint64(77)

	b := make([]byte, 2*(optionSize+32)+2*(optionSize+8))

	var offset int
	PutOptionalKey32(b, key, &offset)
	PutOptionalKey32(b, nil, &offset)
	PutOptionalUint64(b, &value, &offset)
	PutOptionalUint64(b, nil, &offset)
	assert.Equal(t, len(b), offset)

	var (
		k1, k2 ed25519.PublicKey
		v1, v2 *uint64
	)

	offset = 0
	GetOptionalKey32(b, &k1, &offset)
	GetOptionalKey32(b, &k2, &offset)
	GetOptionalUint64(b, &v1, &offset)
	GetOptionalUint64(b, &v2, &offset)
	assert.Equal(t, len(b), offset)

	assert.Equal(t, key, k1)
	assert.Nil(t, k2)
	assert.Equal(t, &value, v1)
	assert.Nil(t, v2)
}

func TestFixedFields(t *testing.T) {
	b := make([]byte, 8+1+1+1)

	var offset int
	PutUint64(b, 1<<40, &offset)
	PutUint8(b, 200, &offset)
	PutBool(b, true, &offset)
	PutBool(b, false, &offset)

	var (
		u64 uint64
		u8  uint8
		t1  bool
		t2  bool
	)

	offset = 0
	GetUint64(b, &u64, &offset)
	GetUint8(b, &u8, &offset)
	GetBool(b, &t1, &offset)
	GetBool(b, &t2, &offset)

	assert.EqualValues(t, 1<<40, u64)
	assert.EqualValues(t, 200, u8)
	assert.True(t, t1)
	assert.False(t, t2)
}
