package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	original := NewValidationError("endpoint is required", map[string]any{"field": "endpoint"})
	wrapped := fmt.Errorf("search stats: %w", original)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeValidationFailed, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "endpoint", de.Details["field"])
}

func TestToDomainError_FiberErrorKeepsStatus(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusUnauthorized, "invalid credentials"))
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, CodeUnauthorized, de.Code)
	assert.Equal(t, "invalid credentials", de.Message)

	de = ToDomainError(fiber.ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, de.HTTPStatus)
}

func TestToDomainError_NoRowsIsNotFound(t *testing.T) {
	de := ToDomainError(fmt.Errorf("get product: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestNewNotFound_Message(t *testing.T) {
	err := NewNotFound("category", nil)
	assert.EqualError(t, err, "category not found")
}
