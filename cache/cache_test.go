package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/utils/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestNilCacheIsDisabled(t *testing.T) {
	c := New(nil, time.Minute)
	assert.Nil(t, c)

	var dest map[string]int
	found, err := c.Get(context.Background(), "stats", nil, &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(context.Background(), "stats", nil, 1))
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestKeyDependsOnVersionAndParams(t *testing.T) {
	type params struct{ Days int }
	k1, err := Key("0", "categories", params{7})
	require.NoError(t, err)
	k2, _ := Key("0", "categories", params{30})
	k3, _ := Key("1", "categories", params{7})
	k4, _ := Key("0", "categories", params{7})

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, k4)
}

func TestRoundTripAndInvalidate(t *testing.T) {
	client := utils.GetRedisClient(utils.RedisOptionsFromEnv())
	if client == nil {
		t.Skip("redis not configured")
	}
	defer client.Close()
	ctx := context.Background()
	c := New(client, time.Minute)

	params := map[string]string{"run": utils.RandomAlphabetString(8)}
	require.NoError(t, c.Set(ctx, "stats", params, map[string]int{"total": 3}))

	var got map[string]int
	found, err := c.Get(ctx, "stats", params, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got["total"])

	require.NoError(t, c.Invalidate(ctx))
	found, err = c.Get(ctx, "stats", params, &got)
	require.NoError(t, err)
	assert.False(t, found)
}
