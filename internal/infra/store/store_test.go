package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
)

var (
	_ port.PreferencesStore = (*Memory)(nil)
	_ port.PreferencesStore = (*Redis)(nil)
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := domain.BackofficeSettings{Language: "es", Timezone: "America/Buenos_Aires", Theme: "dark"}
	require.NoError(t, m.Put(ctx, "settings:bo-1", in, 0))

	var out domain.BackofficeSettings
	ok, err := m.Get(ctx, "settings:bo-1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, m.Delete(ctx, "settings:bo-1"))
	ok, err = m.Get(ctx, "settings:bo-1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "session:bo-1", "x", time.Minute))
	var s string
	ok, _ := m.Get(ctx, "session:bo-1", &s)
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	ok, _ = m.Get(ctx, "session:bo-1", &s)
	assert.False(t, ok)
}

func TestRedis_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisWithClient(db, "")
	ctx := context.Background()

	payload, _ := json.Marshal(domain.FieldOverrides{"email": false})
	mock.ExpectGet(DefaultKeyPrefix + "fields:bo-1").SetVal(string(payload))
	mock.ExpectGet(DefaultKeyPrefix + "fields:bo-2").RedisNil()
	mock.ExpectGet(DefaultKeyPrefix + "fields:bo-3").SetErr(errors.New("connection refused"))

	var ov domain.FieldOverrides
	ok, err := r.Get(ctx, "fields:bo-1", &ov)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.FieldOverrides{"email": false}, ov)

	ok, err = r.Get(ctx, "fields:bo-2", &ov)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Get(ctx, "fields:bo-3", &ov)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_PutAndDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisWithClient(db, "test:")
	ctx := context.Background()

	data, _ := json.Marshal([]string{"a"})
	mock.ExpectSet("test:history:bo-1", data, time.Hour).SetVal("OK")
	mock.ExpectDel("test:history:bo-1").SetVal(1)

	require.NoError(t, r.Put(ctx, "history:bo-1", []string{"a"}, time.Hour))
	require.NoError(t, r.Delete(ctx, "history:bo-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
