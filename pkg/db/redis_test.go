package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisDocument(t *testing.T) (*RedisDocument, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := NewRedisClient(RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisDocument(rdb, "ogprank:articles", time.Second), mr
}

func TestRedisDocumentReadWrite(t *testing.T) {
	ctx := context.Background()
	doc, mr := newTestRedisDocument(t)

	_, err := doc.Read(ctx)
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, doc.Write(ctx, []byte(`{"x":1}`)))
	data, err := doc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))

	stored, err := mr.Get("ogprank:articles")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, stored)
}

func TestRedisDocumentPreserve(t *testing.T) {
	doc, mr := newTestRedisDocument(t)

	backup, err := doc.Preserve(context.Background(), []byte("garbage"))
	require.NoError(t, err)
	assert.Contains(t, backup, "ogprank:articles:corrupt:")

	stored, err := mr.Get(backup)
	require.NoError(t, err)
	assert.Equal(t, "garbage", stored)
}

func TestRedisDocumentLock(t *testing.T) {
	ctx := context.Background()
	doc, mr := newTestRedisDocument(t)

	unlock, err := doc.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("ogprank:articles:lock"))

	// 锁被占用时，第二个调用方在 ctx 超时后放弃
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = doc.Lock(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("ogprank:articles:lock"))

	unlock2, err := doc.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}
