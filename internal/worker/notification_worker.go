package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// LowStockSource lists live products under a stock threshold.
type LowStockSource interface {
	ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
}

// LowStockNotifier sends one batch notification.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, products []domain.Product) error
}

// LowStockSweeper periodically looks for low-stock products and notifies
// users about them in one batch per sweep.
type LowStockSweeper struct {
	source    LowStockSource
	notifier  LowStockNotifier
	threshold int
	interval  time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewLowStockSweeper builds the worker. A non-positive interval disables it.
func NewLowStockSweeper(source LowStockSource, notifier LowStockNotifier, threshold int, interval time.Duration, logger *zap.Logger) *LowStockSweeper {
	return &LowStockSweeper{
		source:    source,
		notifier:  notifier,
		threshold: threshold,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *LowStockSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("low stock sweeper disabled")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("low stock sweeper stopped")
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn("low stock sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned.
func (s *LowStockSweeper) Wait() {
	s.wg.Wait()
}

// Sweep runs a single pass.
func (s *LowStockSweeper) Sweep(ctx context.Context) error {
	products, err := s.source.ListLowStock(ctx, s.threshold)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	s.logger.Info("low stock products found", zap.Int("count", len(products)), zap.Int("threshold", s.threshold))
	return s.notifier.NotifyLowStock(ctx, products)
}
