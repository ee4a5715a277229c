package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/pkg/config"
)

func TestOptionsPrefersURL(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://:pw@cache.internal:6380/2", Host: "ignored", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestOptionsFromHostPort(t *testing.T) {
	opts, err := Options(config.RedisConfig{Host: "localhost", Port: 6379, DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := Options(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestNewRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewRedis(config.RedisConfig{URL: "redis://" + addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	_, err = NewRedis(config.RedisConfig{URL: "redis://" + addr})
	assert.Error(t, err)
}
