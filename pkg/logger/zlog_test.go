package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zap.InfoLevel, parseLevel(""))
	assert.Equal(t, zap.InfoLevel, parseLevel("bogus"))
}

func TestSetLevel(t *testing.T) {
	before := level.Level()
	defer level.SetLevel(before)

	SetLevel("error")
	assert.Equal(t, zap.ErrorLevel, level.Level())

	SetLevel("")
	assert.Equal(t, zap.ErrorLevel, level.Level())
}
