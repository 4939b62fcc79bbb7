package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesOriginal(t *testing.T) {
	clone := Clone(ErrPreconditionFailed, "current term is not configured")

	assert.True(t, errors.Is(clone, ErrPreconditionFailed))
	assert.False(t, errors.Is(clone, ErrValidation))
	assert.Equal(t, "precondition failed", ErrPreconditionFailed.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	appErr := FromError(fmt.Errorf("load: %w", cause))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", WrapAs(ErrSheetColumns, errors.New("missing Title"), ""))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrSheetColumns.Code, appErr.Code)
	assert.Equal(t, ErrSheetColumns.Message, appErr.Message)
	assert.Equal(t, "spreadsheet columns do not match the expected layout: missing Title", appErr.Error())
}
