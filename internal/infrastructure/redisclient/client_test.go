package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUniversalOptions(t *testing.T) {
	opts, err := ParseUniversalOptions("redis://:pw@cache-1:6379/2")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache-1:6379"}, opts.Addrs)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = ParseUniversalOptions("redis://node-a:7000, node-b:7001")
	require.NoError(t, err)
	assert.Equal(t, []string{"node-a:7000", "node-b:7001"}, opts.Addrs)

	_, err = ParseUniversalOptions(" , ")
	assert.Error(t, err)
}
