package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervue/interview-service/config"
)

func TestNewUnconfiguredReturnsNil(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Cache.Addr)

	db, err := New(cfg)
	assert.NoError(t, err)
	assert.Nil(t, db)
}

func TestNilReceiverIsNoOp(t *testing.T) {
	var db *DB
	ctx := context.Background()

	assert.NoError(t, db.SaveAudio(ctx, "s1", 1, []byte("audio")))

	data, err := db.LoadAudio(ctx, "s1", 1)
	assert.NoError(t, err)
	assert.Nil(t, data)

	removed, err := db.CleanSession(ctx, "s1")
	assert.NoError(t, err)
	assert.Zero(t, removed)

	assert.NoError(t, db.Ping(ctx))
	assert.NoError(t, db.Close())
}
