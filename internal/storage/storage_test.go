package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"minihub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, kv domain.KVStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "cart:42")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "cart:42", []byte(`[{"quantity":1}]`)))
	data, ok, err := kv.Get(ctx, "cart:42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"quantity":1}]`, string(data))

	require.NoError(t, kv.Set(ctx, "cart:42", []byte(`[]`)))
	data, _, err = kv.Get(ctx, "cart:42")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, kv.Delete(ctx, "cart:42"))
	_, ok, err = kv.Get(ctx, "cart:42")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, kv.Delete(ctx, "cart:42"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	kv := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, kv.Set(context.Background(), "k", value))
	value[0] = 'x'
	got, _, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := filepath.Join(t.TempDir(), "data")
	kv, err := NewFileStore(dir, logger)
	require.NoError(t, err)
	exerciseStore(t, kv)

	require.NoError(t, kv.Set(context.Background(), "products", []byte(`[]`)))
	_, err = os.Stat(filepath.Join(dir, "products.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := ConnectRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	kv := NewRedisStore(client, "minihub:")
	exerciseStore(t, kv)

	require.NoError(t, kv.Set(context.Background(), "orders", []byte(`[]`)))
	stored, err := mr.Get("minihub:orders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, stored)
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis("not a url")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	logger, _ := test.NewNullLogger()
	kv := NewPostgresStore(db, "minihub_slices", logger)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "minihub_slices" WHERE key = $1`)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, ok, err := kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec(`INSERT INTO "minihub_slices" .* ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("users", `[{"id":"1"}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, kv.Set(ctx, "users", []byte(`[{"id":"1"}]`)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "minihub_slices" WHERE key = $1`)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"1"}]`))
	data, ok, err := kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(data))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "minihub_slices" WHERE key = $1`)).
		WithArgs("users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, kv.Delete(ctx, "users"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	logger, _ := test.NewNullLogger()
	kv := NewPostgresStore(db, "minihub_slices", logger)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT value FROM`).WillReturnError(boom)
	_, _, err = kv.Get(context.Background(), "orders")
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "minihub_slices"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsurePostgresSchema(context.Background(), db, "minihub_slices"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlicesToleratesCorruptEntries(t *testing.T) {
	logger, hook := test.NewNullLogger()
	kv := NewMemoryStore()
	slices := NewSlices(kv, logger)
	ctx := context.Background()

	var orders []domain.Order
	assert.False(t, slices.Load(ctx, domain.SliceOrders, &orders))
	assert.Empty(t, hook.AllEntries())

	require.NoError(t, kv.Set(ctx, domain.SliceOrders, []byte(`{not json`)))
	assert.False(t, slices.Load(ctx, domain.SliceOrders, &orders))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	want := []domain.Order{{ID: "o1", Quantity: 2, BuyerName: "alice"}}
	require.NoError(t, slices.Save(ctx, domain.SliceOrders, want))
	var got []domain.Order
	require.True(t, slices.Load(ctx, domain.SliceOrders, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].BuyerName)

	require.NoError(t, slices.Remove(ctx, domain.SliceOrders))
	assert.False(t, slices.Load(ctx, domain.SliceOrders, &got))
}

type failingStore struct{ domain.KVStore }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func TestSlicesTreatsReadErrorsAsAbsent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	slices := NewSlices(failingStore{NewMemoryStore()}, logger)
	var users []domain.User
	assert.False(t, slices.Load(context.Background(), domain.SliceUsers, &users))
	assert.Len(t, hook.AllEntries(), 1)
}
