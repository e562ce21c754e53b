// Package stats counts requests per (endpoint, method) pair.
package stats

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/observability"
	"github.com/spec-kit/catalog-service/internal/repository"
)

const defaultTimeout = 500 * time.Millisecond

// Interceptor is fiber middleware that records every request it wraps in the
// stat registry. Registry failures are logged and never reach the caller.
type Interceptor struct {
	registry repository.EndpointStatRepository
	logger   *zap.Logger
	metrics  *observability.Metrics
	timeout  time.Duration
}

// NewInterceptor builds the middleware. timeout bounds each registry call.
func NewInterceptor(registry repository.EndpointStatRepository, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *Interceptor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{registry: registry, logger: logger, metrics: metrics, timeout: timeout}
}

// Handle counts the request, runs the rest of the chain and records the
// outcome. The downstream error is returned as is and a downstream panic keeps
// unwinding after the outcome has been recorded.
func (i *Interceptor) Handle(c *fiber.Ctx) (err error) {
	endpoint := EndpointOf(c.Path())
	method := utils.CopyString(c.Method())
	parent := c.UserContext()

	handle, counted := i.countTotal(parent, endpoint, method)

	panicked := true
	defer func() {
		if !counted {
			// keeps success+error <= total when the total was lost
			return
		}
		outcome := outcomeOf(c.Response().StatusCode(), err, panicked)
		i.countOutcome(parent, handle, outcome, endpoint, method)
	}()

	err = c.Next()
	panicked = false
	return err
}

func (i *Interceptor) countTotal(parent context.Context, endpoint, method string) (domain.StatHandle, bool) {
	ctx, cancel := i.detached(parent)
	defer cancel()

	handle, err := i.registry.GetOrCreate(ctx, endpoint, method)
	if err != nil {
		i.reportFailure("get_or_create", endpoint, method, err)
		return 0, false
	}
	if err := i.registry.IncrementTotal(ctx, handle); err != nil {
		i.reportFailure("increment_total", endpoint, method, err)
		return 0, false
	}
	return handle, true
}

func (i *Interceptor) countOutcome(parent context.Context, handle domain.StatHandle, outcome Outcome, endpoint, method string) {
	ctx, cancel := i.detached(parent)
	defer cancel()

	if outcome == OutcomeSuccess {
		if err := i.registry.IncrementSuccess(ctx, handle); err != nil {
			i.reportFailure("increment_success", endpoint, method, err)
		}
		return
	}
	if err := i.registry.IncrementError(ctx, handle); err != nil {
		i.reportFailure("increment_error", endpoint, method, err)
	}
}

// detached survives client cancellation and request deadlines but is still
// bounded by the interceptor's own timeout.
func (i *Interceptor) detached(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), i.timeout)
}

func (i *Interceptor) reportFailure(operation, endpoint, method string, err error) {
	i.metrics.RecordStatsFailure(operation)
	i.logger.Warn("endpoint stats not recorded",
		zap.String("operation", operation),
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.Error(err))
}
