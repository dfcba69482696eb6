package database

import (
	"context"
	"io/fs"
	"testing"

	"subsidy-wizard/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 10, client.GetClient().Options().PoolSize)
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.ErrorIs(t, err, ErrNoRedisAddress)
}

func TestRedisPing_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 3})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 3, client.GetClient().Options().PoolSize)

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewPostgres_DoesNotDial(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, User: "wizard", Database: "subsidies",
		SSLMode: "disable", MaxConnections: 4, MaxIdle: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, client.GetDB().Stats().MaxOpenConnections)
	assert.NoError(t, client.Close())
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
