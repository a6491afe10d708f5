package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGet(t *testing.T) {
	query, args, err := buildGet("u1")
	require.NoError(t, err)
	assert.Regexp(t, `^SELECT uid, email, display_name, phone, address, city, country, zip FROM profiles`, query)
	assert.Contains(t, query, "WHERE uid = $1")
	assert.Equal(t, []any{"u1"}, args)
}
