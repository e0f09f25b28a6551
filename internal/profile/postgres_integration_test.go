//go:build integration

package profile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/54b3r/rugcheck-go/internal/evidence"
)

// setupTestDB starts a PostgreSQL container and applies the embedded
// migrations. The container is terminated when the test finishes.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("rugcheck"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	_, err = Migrate(ctx, pool)
	require.NoError(t, err, "failed to apply migrations")
	return pool
}

func holders(n int, prefix string) []Holder {
	out := make([]Holder, n)
	for i := range out {
		out[i] = Holder{
			Address:    fmt.Sprintf("%s%d", prefix, i),
			Tag:        "wallet",
			IsContract: "0",
			Balance:    "100",
			Percent:    "0.1",
			IsLocked:   "1",
		}
	}
	return out
}

func lpHolders(n int) []LPHolder {
	out := make([]LPHolder, n)
	for i, h := range holders(n, "0xlp") {
		out[i] = LPHolder{Holder: h, Value: "10"}
	}
	return out
}

func snapshot(address, name string) *Snapshot {
	return &Snapshot{
		Address: address,
		ChainID: "8453",
		Fields: map[string]string{
			"token_name":   name,
			"token_symbol": "FOO",
			"is_honeypot":  "1",
			"is_mintable":  "0",
			"buy_tax":      "0.05",
		},
		DEXs:      []DEX{{LiquidityType: "UniV2", Name: "UniswapV2", Liquidity: "1234.5", Pair: "0xpair"}},
		Holders:   holders(2, "0xh"),
		LPHolders: lpHolders(2),
	}
}

func TestPostgres_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	w := NewWriter(pool)
	src := NewPostgresSource(pool)

	const foo = "0x1111111111111111111111111111111111111111"
	const bar = "0x2222222222222222222222222222222222222222"
	const lonely = "0x3333333333333333333333333333333333333333"

	_, err := w.Upsert(ctx, snapshot(foo, "FooCoin"))
	require.NoError(t, err)
	_, err = w.Upsert(ctx, snapshot(bar, "BarCoin"))
	require.NoError(t, err)

	// Only one holder: excluded by the inner join on holders_group.
	s := snapshot(lonely, "Lonely")
	s.Holders = holders(1, "0xh")
	_, err = w.Upsert(ctx, s)
	require.NoError(t, err)

	t.Run("most recent first", func(t *testing.T) {
		got, err := src.Profiles(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "BarCoin", got[0].Name())
		assert.Equal(t, "FooCoin", got[1].Name())
	})

	t.Run("address filter is case-insensitive", func(t *testing.T) {
		got, err := src.Profiles(ctx, "0x1111111111111111111111111111111111111111", 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		p := got[0]
		assert.Equal(t, foo, p.Address())
		require.NotNil(t, p.IsHoneypot)
		assert.Equal(t, "1", *p.IsHoneypot)
		assert.Nil(t, p.OwnerAddress)
		require.NotNil(t, p.Holders.Count)
		assert.Equal(t, int64(2), *p.Holders.Count)
		require.NotNil(t, p.DEX.Names)
		assert.Equal(t, "UniswapV2", *p.DEX.Names)

		out := evidence.Format(p)
		assert.Contains(t, out, "- token_name: FooCoin\n")
		assert.Contains(t, out, "- owner_address: None\n")
	})

	t.Run("inner join excludes tokens with one holder", func(t *testing.T) {
		got, err := src.Profiles(ctx, lonely, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("injection attempt is just a value", func(t *testing.T) {
		got, err := src.Profiles(ctx, "' OR 1=1 --", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("upsert replaces children", func(t *testing.T) {
		s := snapshot(foo, "FooCoin v2")
		s.Holders = holders(3, "0xnew")
		_, err := w.Upsert(ctx, s)
		require.NoError(t, err)

		got, err := src.Profiles(ctx, foo, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "FooCoin v2", got[0].Name())
		assert.Equal(t, int64(3), *got[0].Holders.Count)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	_, err := Migrate(context.Background(), pool)
	require.NoError(t, err)
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewPool(ctx, "postgres://u:p@127.0.0.1:1/db?sslmode=disable")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataSource)
}
