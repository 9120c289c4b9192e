package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/utafrali/cardshop/internal/domain"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

func setupTestRedis(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProductCache(client), mr
}

func sampleProduct() domain.Product {
	return domain.Product{
		MaxCards:        10,
		UpgradeAbo:      domain.TierPro,
		SubscriptionFee: 3600,
		CardPrices: map[domain.LineItemType]int64{
			domain.Sponsor: 4000,
			domain.Logo:    4500,
			domain.Graphic: 5000,
		},
		DeliveryFees: map[domain.Country]int64{
			domain.CountryCH: 0,
			domain.CountryIT: 500,
		},
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestProductCache_Get_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "standard")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductCache_Get_CorruptValue(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("product:standard", "{not json"))

	_, err := cache.Get(context.Background(), "standard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal product")
}

func TestProductCache_Get_ConnectionError(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "standard")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "redis get product")
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestProductCache_SaveThenGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "standard", sampleProduct(), time.Hour))
	assert.True(t, mr.Exists("product:standard"))
	assert.Equal(t, time.Hour, mr.TTL("product:standard"))

	got, err := cache.Get(ctx, "standard")
	require.NoError(t, err)
	assert.Equal(t, sampleProduct(), *got)
}

func TestProductCache_Save_Expires(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "pro", sampleProduct(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "pro")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestProductCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "standard", sampleProduct(), time.Hour))
	require.NoError(t, cache.Delete(ctx, "standard"))
	assert.False(t, mr.Exists("product:standard"))
}

func TestProductCache_Delete_Missing(t *testing.T) {
	cache, _ := setupTestRedis(t)
	assert.NoError(t, cache.Delete(context.Background(), "enterprise"))
}

func TestProductCache_TracesCommands(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "pro", sampleProduct(), time.Minute))
	_, err := cache.Get(ctx, "gold")
	require.Error(t, err)
	require.NoError(t, cache.Delete(ctx, "pro"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "redis.SET", spans[0].Name)
	assert.Equal(t, "redis.GET", spans[1].Name)
	assert.Empty(t, spans[1].Events, "a cache miss is not a span error")
	assert.Equal(t, "redis.DEL", spans[2].Name)
}
