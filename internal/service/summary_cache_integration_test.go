//go:build integration

package service_test

// Run with: go test -tags integration ./internal/service/... -v

import (
	"context"
	"testing"
	"time"

	"drawerledger/internal/infra"
	"drawerledger/internal/ledger"
	"drawerledger/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupCache(t *testing.T) *service.SummaryCache {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	return service.NewSummaryCache(rdb)
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()
	sessionID := uuid.New()
	day := time.Now()

	_, ok := cache.Get(ctx, sessionID, day)
	assert.False(t, ok)

	summary := ledger.Summary{
		Sales:    decimal.NewFromFloat(450),
		Expenses: decimal.NewFromFloat(25),
		NetSales: decimal.NewFromFloat(450),
	}
	cache.Set(ctx, sessionID, day, summary)

	cached, ok := cache.Get(ctx, sessionID, day)
	require.True(t, ok)
	assert.Equal(t, summary.Sales.String(), cached.Sales.String())
	assert.Equal(t, summary.Expenses.String(), cached.Expenses.String())
}

func TestSummaryCacheInvalidate(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()
	sessionID := uuid.New()
	day := time.Now()

	cache.Set(ctx, sessionID, day, ledger.Summary{Sales: decimal.NewFromFloat(100)})
	cache.Invalidate(ctx, sessionID)

	_, ok := cache.Get(ctx, sessionID, day)
	assert.False(t, ok)

	// Other sessions are untouched.
	other := uuid.New()
	cache.Set(ctx, other, day, ledger.Summary{Sales: decimal.NewFromFloat(50)})
	cache.Invalidate(ctx, sessionID)
	_, ok = cache.Get(ctx, other, day)
	assert.True(t, ok)
}
