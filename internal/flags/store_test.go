package flags

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestProviderKey(t *testing.T) {
	assert.Equal(t, "provider.birdeye", ProviderKey("Birdeye"))
	assert.Equal(t, "provider.solana_chain", ProviderKey(" solana_chain "))
	assert.NoError(t, ValidateKey(ProviderKey("dexscreener")))
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"provider.rugcheck", "flag123", "a", "with-dash_and.dot"} {
		assert.NoError(t, ValidateKey(key), key)
	}
	for _, key := range []string{"", " ", "flag with spaces", "flag:with:colons", "tab\tkey", "new\nline"} {
		assert.Error(t, ValidateKey(key), key)
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, ProviderKey("birdeye"))
	assert.ErrorIs(t, err, ErrNotFound)

	flag, err := store.Upsert(ctx, ProviderKey("birdeye"), false, "  quota exhausted ")
	require.NoError(t, err)
	assert.Equal(t, "provider.birdeye", flag.Key)
	assert.False(t, flag.Value)
	assert.Equal(t, "quota exhausted", flag.Reason)
	assert.NotZero(t, flag.UpdatedAt)

	got, err := store.Get(ctx, ProviderKey("birdeye"))
	require.NoError(t, err)
	assert.Equal(t, flag.Value, got.Value)
	assert.Equal(t, flag.Reason, got.Reason)
	assert.Equal(t, flag.UpdatedAt, got.UpdatedAt)

	time.Sleep(time.Millisecond)
	flag2, err := store.Upsert(ctx, ProviderKey("birdeye"), true, "")
	require.NoError(t, err)
	assert.True(t, flag2.UpdatedAt.After(flag.UpdatedAt))
}

func TestStore_Enabled(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	on, err := store.Enabled(ctx, ProviderKey("rugcheck"), true)
	require.NoError(t, err)
	assert.True(t, on, "unset flag falls back to default")

	_, err = store.Upsert(ctx, ProviderKey("rugcheck"), false, "")
	require.NoError(t, err)

	on, err = store.Enabled(ctx, ProviderKey("rugcheck"), true)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = store.Enabled(ctx, "bad key", true)
	assert.Error(t, err)
}

func TestStore_ListAndDelete(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	flags, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, flags)

	want := map[string]bool{
		ProviderKey("dexscreener"): true,
		ProviderKey("birdeye"):     false,
		ProviderKey("jupiter"):     true,
	}
	for k, v := range want {
		_, err := store.Upsert(ctx, k, v, "")
		require.NoError(t, err)
	}

	flags, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, flags, 3)
	for _, f := range flags {
		assert.Equal(t, want[f.Key], f.Value, f.Key)
	}

	require.NoError(t, store.Delete(ctx, ProviderKey("birdeye")))
	_, err = store.Get(ctx, ProviderKey("birdeye"))
	assert.ErrorIs(t, err, ErrNotFound)

	flags, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flags, 2)

	assert.NoError(t, store.Delete(ctx, "nonexistent.flag"))
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	const workers, ops = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				key := fmt.Sprintf("provider.p%d-%d", id, j)
				value := (id+j)%2 == 0
				_, err := store.Upsert(ctx, key, value, "")
				assert.NoError(t, err)

				on, err := store.Enabled(ctx, key, !value)
				assert.NoError(t, err)
				assert.Equal(t, value, on)
			}
		}(i)
	}
	wg.Wait()

	flags, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flags, workers*ops)
}
