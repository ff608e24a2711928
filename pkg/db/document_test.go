package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDocumentMissing(t *testing.T) {
	doc := NewFileDocument(filepath.Join(t.TempDir(), "instance", "articles.json"))

	_, err := doc.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFileDocumentWriteRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "instance", "articles.json")
	doc := NewFileDocument(path)

	require.NoError(t, doc.Write(ctx, []byte(`{"a":1}`)))
	require.NoError(t, doc.Write(ctx, []byte(`{"b":2}`)))

	data, err := doc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(data))

	// 临时文件不应残留
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileDocumentPreserve(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "articles.json")
	doc := NewFileDocument(path)

	backup, err := doc.Preserve(ctx, []byte("{not json"))
	require.NoError(t, err)
	assert.Contains(t, backup, "articles.json.corrupt.")

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}
