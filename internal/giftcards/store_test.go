package giftcards

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisClient "github.com/richxcame/gift-wallet/pkg/redis"
)

func newTestStore(t *testing.T) (*RedisStore, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewRedisStore(redisClient.NewFromClient(db)), mock
}

func TestRedisStore_GetCardMap_Missing(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("giftcards:cards:testnet:Amazon.com").RedisNil()

	cards, err := store.GetCardMap(context.Background(), BrandAmazon, testNetwork)
	require.NoError(t, err)
	assert.Nil(t, cards)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetCardMap_VersionedEnvelope(t *testing.T) {
	store, mock := newTestStore(t)

	stored, err := json.Marshal(storedCardMap{
		Version: cardMapVersion,
		Cards: map[string]GiftCard{
			"inv1": {InvoiceID: "inv1", Name: BrandAmazon, Status: StatusSuccess, ClaimCode: "ABC"},
		},
	})
	require.NoError(t, err)
	mock.ExpectGet("giftcards:cards:testnet:Amazon.com").SetVal(string(stored))

	cards, err := store.GetCardMap(context.Background(), BrandAmazon, testNetwork)
	require.NoError(t, err)
	require.Contains(t, cards, "inv1")
	assert.Equal(t, StatusSuccess, cards["inv1"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetCardMap_LegacyBareMap(t *testing.T) {
	store, mock := newTestStore(t)

	// Records persisted before the envelope existed are bare maps.
	legacy := `{"inv1":{"invoiceId":"inv1","name":"Amazon.com","status":"PENDING","amount":25}}`
	mock.ExpectGet("giftcards:cards:testnet:Amazon.com").SetVal(legacy)

	cards, err := store.GetCardMap(context.Background(), BrandAmazon, testNetwork)
	require.NoError(t, err)
	require.Contains(t, cards, "inv1")
	assert.Equal(t, StatusPending, cards["inv1"].Status)
	assert.Equal(t, float64(25), cards["inv1"].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetCardMap_Corrupt(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("giftcards:cards:testnet:Amazon.com").SetVal("not json")

	_, err := store.GetCardMap(context.Background(), BrandAmazon, testNetwork)
	assert.Error(t, err)
}

func TestRedisStore_SetCardMap_WritesEnvelope(t *testing.T) {
	store, mock := newTestStore(t)

	cards := map[string]GiftCard{
		"inv1": {InvoiceID: "inv1", Name: BrandAmazon, Status: StatusPending},
	}
	expected, err := json.Marshal(storedCardMap{Version: cardMapVersion, Cards: cards})
	require.NoError(t, err)
	mock.ExpectSet("giftcards:cards:testnet:Amazon.com", expected, 0).SetVal("OK")

	require.NoError(t, store.SetCardMap(context.Background(), BrandAmazon, testNetwork, cards))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ActiveIndexRoundTrip(t *testing.T) {
	store, mock := newTestStore(t)

	index := map[string]GiftCard{
		"inv1": {InvoiceID: "inv1", Name: BrandUber, Status: StatusSuccess},
	}
	encoded, err := json.Marshal(storedCardMap{Version: cardMapVersion, Cards: index})
	require.NoError(t, err)

	mock.ExpectSet("giftcards:active:testnet", encoded, 0).SetVal("OK")
	mock.ExpectGet("giftcards:active:testnet").SetVal(string(encoded))

	ctx := context.Background()
	require.NoError(t, store.SetActiveIndex(ctx, testNetwork, index))

	loaded, err := store.GetActiveIndex(ctx, testNetwork)
	require.NoError(t, err)
	assert.Equal(t, index, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ConfigCacheRoundTrip(t *testing.T) {
	store, mock := newTestStore(t)

	configs := map[string]ApiCardConfig{
		BrandAmazon: {Currency: "USD", MinAmount: 1, MaxAmount: 2000},
	}
	encoded, err := json.Marshal(configs)
	require.NoError(t, err)

	mock.ExpectSet("giftcards:config:testnet", encoded, 0).SetVal("OK")
	mock.ExpectGet("giftcards:config:testnet").SetVal(string(encoded))

	ctx := context.Background()
	require.NoError(t, store.SetConfigCache(ctx, testNetwork, configs))

	loaded, err := store.GetConfigCache(ctx, testNetwork)
	require.NoError(t, err)
	assert.Equal(t, configs, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ConfigCacheMissing(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("giftcards:config:testnet").RedisNil()

	configs, err := store.GetConfigCache(context.Background(), testNetwork)
	require.NoError(t, err)
	assert.Nil(t, configs)
}
