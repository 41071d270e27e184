package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT * FROM table WHERE (owner = $1)"

	query, opts := PaginateQuery(base, []interface{}{"owner"}, EmptyCursor, 0, Ascending)
	assert.Equal(t, base+" ORDER BY id ASC", query)
	assert.Equal(t, []interface{}{"owner"}, opts)

	query, opts = PaginateQuery(base, []interface{}{"owner"}, ToCursor(7), 10, Descending)
	assert.Equal(t, base+" AND id < $2 ORDER BY id DESC LIMIT $3", query)
	assert.Equal(t, []interface{}{"owner", uint64(7), uint64(10)}, opts)

	query, opts = PaginateQuery(base, []interface{}{"owner"}, ToCursor(7), 10, Ascending)
	assert.Equal(t, base+" AND id > $2 ORDER BY id ASC LIMIT $3", query)
	assert.Equal(t, []interface{}{"owner", uint64(7), uint64(10)}, opts)
}

func TestOrdering(t *testing.T) {
	for _, o := range []Ordering{Ascending, Descending} {
		parsed, err := ToOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}

	_, err := ToOrdering("sideways")
	assert.Error(t, err)
}
