package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

func TestThrottle_RejectsAfterBurst(t *testing.T) {
	throttle := NewThrottle(1, 2)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Post("/login", throttle.Handle, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	statuses := make([]int, 0, 3)
	var last *http.Response
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		last = resp
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	assert.NotEmpty(t, last.Header.Get(fiber.HeaderRetryAfter))
}

func TestThrottle_SeparateBucketsPerClient(t *testing.T) {
	throttle := NewThrottle(1, 1)

	assert.NotSame(t, throttle.limiterFor("10.0.0.1"), throttle.limiterFor("10.0.0.2"))
	assert.Same(t, throttle.limiterFor("10.0.0.1"), throttle.limiterFor("10.0.0.1"))
}
