package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeMsgIs(t *testing.T) {
	err := fmt.Errorf("create article: %w", NewValidation("Headline is required."))

	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, "Headline is required.", Message(err))
	assert.Equal(t, http.StatusBadRequest, Status(err))
}

func TestStorageUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStorage("upload preview", cause)

	assert.True(t, stderrors.Is(err, ErrStorage))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, http.StatusBadGateway, Status(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Status(stderrors.New("boom")))
	assert.Equal(t, "", Message(stderrors.New("boom")))
	assert.Equal(t, http.StatusNotFound, Status(NewNotFound("article not found")))
}
