package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/articles/a_og.png", JoinURL("https://cdn.example.com", "articles/a_og.png"))
	assert.Equal(t, "https://cdn.example.com/articles/a_og.png", JoinURL("https://cdn.example.com///", "//articles/a_og.png"))
	assert.Equal(t, "https://cdn.example.com/bucket/k", JoinURL("https://cdn.example.com/bucket/", "/k"))
}

func TestLocalStoragePutObject(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "http://localhost:8080/assets/")

	err := s.PutObject(context.Background(), "articles/abc_og.png", bytes.NewReader([]byte("png-bytes")), 9, "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "articles", "abc_og.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "http://localhost:8080/assets/articles/abc_og.png", s.GetFileURL("articles/abc_og.png"))
}

func TestLocalStorageKeyCannotEscape(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(filepath.Join(dir, "assets"), "")

	err := s.PutObject(context.Background(), "../../escape.png", bytes.NewReader([]byte("x")), 1, "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "assets", "escape.png"))
	assert.NoError(t, err)
	assert.Equal(t, "/k.png", s.GetFileURL("k.png"))
}

func TestLocalStorageCanceled(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.PutObject(ctx, "articles/x.png", bytes.NewReader([]byte("x")), 1, "")
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(dir, "articles", "x.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseEndpoint(t *testing.T) {
	host, secure, err := parseEndpoint("https://s3.example.com:9000")
	require.NoError(t, err)
	assert.Equal(t, "s3.example.com:9000", host)
	assert.True(t, secure)

	host, secure, err = parseEndpoint("http://127.0.0.1:9000/")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", host)
	assert.False(t, secure)

	host, secure, err = parseEndpoint("minio.internal:9000")
	require.NoError(t, err)
	assert.Equal(t, "minio.internal:9000", host)
	assert.True(t, secure)

	_, _, err = parseEndpoint("")
	assert.Error(t, err)
	_, _, err = parseEndpoint("ftp://x")
	assert.Error(t, err)
}

func TestNewMinioStorage(t *testing.T) {
	s, err := NewMinioStorage(MinioOptions{
		Endpoint:      "http://127.0.0.1:9000",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "ogprank",
		PublicBaseURL: "https://cdn.example.com/ogprank/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ogprank/articles/a_og.png", s.GetFileURL("articles/a_og.png"))
}
