package sensitive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWordFromDict(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(dict, []byte("scam\nfraud\n"), 0644))

	w, err := NewWord(dict, '#')
	require.NoError(t, err)

	pass, hit := w.Validate("this is a scam")
	assert.False(t, pass)
	assert.Equal(t, "scam", hit)

	assert.Equal(t, "big #### news", w.Mask("big scam news"))
}

func TestNewWordFromList(t *testing.T) {
	w := NewWordFromList(0, "协警")

	pass, _ := w.Validate("今日新闻")
	assert.True(t, pass)
	assert.Equal(t, "你是**", w.Mask("你是协警"))
}

func TestNewWordMissingDict(t *testing.T) {
	_, err := NewWord(filepath.Join(t.TempDir(), "missing.txt"), '*')
	assert.Error(t, err)
}
