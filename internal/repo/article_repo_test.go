package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/og-prank/pkg/db"
	"github.com/iceymoss/og-prank/pkg/db/objects"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRepo(t *testing.T) (*ArticleRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance", "articles.json")
	return NewArticleRepo(db.NewFileDocument(path)), path
}

func record(id string) *objects.ArticleRecord {
	return &objects.ArticleRecord{
		ID:              id,
		Headline:        "Headline " + id,
		PreviewAssetKey: "articles/" + id + "_og.png",
		PayloadAssetKey: "articles/" + id + "_troll.png",
	}
}

func TestLoadAllMissingDocument(t *testing.T) {
	r, _ := newFileRepo(t)

	articles, err := r.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	r, path := newFileRepo(t)

	require.NoError(t, r.Insert(ctx, record("3f9a2b7c1d")))

	rec, ok, err := r.Get(ctx, "3f9a2b7c1d")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Headline 3f9a2b7c1d", rec.Headline)
	assert.Equal(t, "articles/3f9a2b7c1d_og.png", rec.PreviewAssetKey)

	exists, err := r.Exists(ctx, "0000000000")
	require.NoError(t, err)
	assert.False(t, exists)

	// 持久化格式：两空格缩进的 JSON 对象
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"3f9a2b7c1d\": {")
}

func TestInsertRefusesDuplicate(t *testing.T) {
	ctx := context.Background()
	r, _ := newFileRepo(t)

	require.NoError(t, r.Insert(ctx, record("aaaaaaaaaa")))

	dup := record("aaaaaaaaaa")
	dup.Headline = "overwrite attempt"
	assert.ErrorIs(t, r.Insert(ctx, dup), ErrDuplicateID)

	rec, _, err := r.Get(ctx, "aaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "Headline aaaaaaaaaa", rec.Headline)
}

func TestConcurrentInsertKeepsEveryRecord(t *testing.T) {
	ctx := context.Background()
	r, _ := newFileRepo(t)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- r.Insert(ctx, record(fmt.Sprintf("%010x", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	articles, err := r.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, n)
}

func TestCorruptDocumentDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	r, path := newFileRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{this is not json"), 0644))

	articles, err := r.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)

	report, err := r.Inspect(ctx)
	require.NoError(t, err)
	assert.True(t, report.Corrupt)

	// 覆盖前先备份原始内容
	require.NoError(t, r.Insert(ctx, record("bbbbbbbbbb")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "articles.json.corrupt.") {
			backups = append(backups, e.Name())
		}
	}
	require.Len(t, backups, 1)
	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), backups[0]))
	require.NoError(t, err)
	assert.Equal(t, "{this is not json", string(data))

	report, err = r.Inspect(ctx)
	require.NoError(t, err)
	assert.False(t, report.Corrupt)
	assert.Equal(t, 1, report.Records)
}

func TestEmptyDocumentIsNotCorrupt(t *testing.T) {
	ctx := context.Background()
	r, path := newFileRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	report, err := r.Inspect(ctx)
	require.NoError(t, err)
	assert.False(t, report.Corrupt)
	assert.False(t, report.Missing)
	assert.Equal(t, 0, report.Records)
}

func TestLegacyRecordsLoadAlongsideCurrent(t *testing.T) {
	ctx := context.Background()
	r, path := newFileRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	legacy := `{
  "1111111111": {"id": "1111111111", "headline": "Old", "og_filename": "1111111111_og.png", "troll_filename": "1111111111_troll.jpg"},
  "2222222222": {"headline": "No id field", "preview_asset_key": "articles/2222222222_og.png", "payload_asset_key": "articles/2222222222_troll.png"},
  "3333333333": {"id": "3333333333", "headline": "Broken"},
  "4444444444": null
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	articles, err := r.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, objects.SchemeLegacy, articles["1111111111"].Scheme())
	assert.Equal(t, "2222222222", articles["2222222222"].ID)

	report, err := r.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, report.Current)
	assert.Equal(t, 1, report.Legacy)
	assert.Equal(t, 1, report.Unknown)

	// 追加新记录不影响旧记录
	require.NoError(t, r.Insert(ctx, record("5555555555")))
	rec, ok, err := r.Get(ctx, "1111111111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1111111111_troll.jpg", rec.TrollFilename)
}

func TestRedisBackedInsertUsesLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := db.NewRedisClient(db.RedisOptions{Addr: mr.Addr()})
	defer rdb.Close()

	doc := db.NewRedisDocument(rdb, "ogprank:articles", 2*time.Second)
	// 两个 repo 模拟两个进程，只共享 Redis
	r1 := NewArticleRepo(doc)
	r2 := NewArticleRepo(doc)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := r1
			if i%2 == 1 {
				r = r2
			}
			assert.NoError(t, r.Insert(ctx, record(fmt.Sprintf("%010x", i))))
		}(i)
	}
	wg.Wait()

	articles, err := r1.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, 20)
	assert.False(t, mr.Exists("ogprank:articles:lock"))
}
