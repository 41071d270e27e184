package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/reward-vault/pkg/database/query"
	"github.com/code-payments/reward-vault/pkg/ledger/account"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRoundTrip,
		testUpdate,
		testPutAllIsAtomic,
		testGetAllByOwner,
	} {
		tf(t, s)
		teardown()
	}
}

func newKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func testRoundTrip(t *testing.T, s account.Store) {
	ctx := context.Background()

	address := newKey(t)

	actual, err := s.Get(ctx, address)
	assert.Equal(t, account.ErrAccountNotFound, err)
	assert.Nil(t, actual)

	expected := &account.Record{
		Address:  address,
		Owner:    newKey(t),
		Lamports: 1392000,
		Data:     []byte{0, 1, 2, 3},
		Slot:     10,
	}
	require.NoError(t, s.PutAll(ctx, expected))
	assert.EqualValues(t, 1, expected.Id)
	assert.False(t, expected.LastUpdatedAt.IsZero())

	actual, err = s.Get(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, expected.Id, actual.Id)
	assert.True(t, expected.Equal(actual))
	assert.Equal(t, expected.Slot, actual.Slot)
	assert.Equal(t, expected.LastUpdatedAt.Unix(), actual.LastUpdatedAt.Unix())

	// Returned records never alias stored data.
	actual.Data[0] = 0xff
	again, err := s.Get(ctx, address)
	require.NoError(t, err)
	assert.EqualValues(t, 0, again.Data[0])
}

func testUpdate(t *testing.T, s account.Store) {
	ctx := context.Background()

	record := &account.Record{
		Address:  newKey(t),
		Owner:    newKey(t),
		Lamports: 890880,
		Slot:     1,
	}
	require.NoError(t, s.PutAll(ctx, record))
	id := record.Id

	record.Owner = newKey(t)
	record.Lamports = 2039280
	record.Data = make([]byte, 165)
	record.Executable = true
	record.Slot = 2
	require.NoError(t, s.PutAll(ctx, record))
	assert.Equal(t, id, record.Id)

	actual, err := s.Get(ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, id, actual.Id)
	assert.True(t, record.Equal(actual))
	assert.EqualValues(t, 2, actual.Slot)
}

func testPutAllIsAtomic(t *testing.T, s account.Store) {
	ctx := context.Background()

	valid := &account.Record{
		Address: newKey(t),
		Owner:   newKey(t),
	}
	invalid := &account.Record{
		Address: "invalid",
		Owner:   newKey(t),
	}

	assert.Error(t, s.PutAll(ctx, valid, invalid))

	_, err := s.Get(ctx, valid.Address)
	assert.Equal(t, account.ErrAccountNotFound, err)

	overfunded := &account.Record{
		Address:  newKey(t),
		Owner:    newKey(t),
		Lamports: account.MaxLamports + 1,
	}
	assert.Error(t, s.PutAll(ctx, valid, overfunded))

	_, err = s.Get(ctx, valid.Address)
	assert.Equal(t, account.ErrAccountNotFound, err)

	largest := &account.Record{Address: newKey(t), Owner: newKey(t), Lamports: account.MaxLamports}
	require.NoError(t, s.PutAll(ctx, largest))
	actual, err := s.Get(ctx, largest.Address)
	require.NoError(t, err)
	assert.EqualValues(t, account.MaxLamports, actual.Lamports)

	first := &account.Record{Address: newKey(t), Owner: newKey(t), Lamports: 1}
	second := &account.Record{Address: newKey(t), Owner: newKey(t), Lamports: 2}
	require.NoError(t, s.PutAll(ctx, first, second))

	for _, expected := range []*account.Record{first, second} {
		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))
	}
}

func testGetAllByOwner(t *testing.T, s account.Store) {
	ctx := context.Background()

	owner := newKey(t)

	_, err := s.GetAllByOwner(ctx, owner, query.EmptyCursor, 10, query.Ascending)
	assert.Equal(t, account.ErrAccountNotFound, err)

	var expected []*account.Record
	for i := 0; i < 5; i++ {
		record := &account.Record{
			Address:  newKey(t),
			Owner:    owner,
			Lamports: uint64(i),
		}
		require.NoError(t, s.PutAll(ctx, record))
		expected = append(expected, record)

		require.NoError(t, s.PutAll(ctx, &account.Record{
			Address: newKey(t),
			Owner:   newKey(t),
		}))
	}

	actual, err := s.GetAllByOwner(ctx, owner, query.EmptyCursor, 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 5)
	for i, record := range actual {
		assert.Equal(t, expected[i].Address, record.Address)
	}

	actual, err = s.GetAllByOwner(ctx, owner, query.EmptyCursor, 2, query.Descending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.Equal(t, expected[4].Address, actual[0].Address)
	assert.Equal(t, expected[3].Address, actual[1].Address)

	actual, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[1].Id), 2, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.Equal(t, expected[2].Address, actual[0].Address)
	assert.Equal(t, expected[3].Address, actual[1].Address)

	_, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[4].Id), 2, query.Ascending)
	assert.Equal(t, account.ErrAccountNotFound, err)
}
