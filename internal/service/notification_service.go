package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/repository"
)

// NotificationService reacts to product events and tells users about low stock.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
	threshold  int
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, logger *zap.Logger, cfg config.NotificationConfig, lowStockThreshold int) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		logger:     logger,
		cfg:        cfg,
		threshold:  lowStockThreshold,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProductCreated, n.handleProductWritten)
	n.dispatcher.Subscribe(events.EventProductUpdated, n.handleProductWritten)
	n.dispatcher.Subscribe(events.EventProductDeleted, n.handleProductDeleted)
}

// Threshold returns the stock level under which a product counts as low.
func (n *NotificationService) Threshold() int {
	return n.threshold
}

func (n *NotificationService) handleProductWritten(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ProductPayload)
	n.logAction(event, payload)

	if payload.Stock >= n.threshold {
		return nil
	}
	return n.NotifyLowStock(ctx, []domain.Product{{
		ID:    event.ProductID,
		Name:  payload.Name,
		Price: payload.Price,
		Stock: payload.Stock,
	}})
}

func (n *NotificationService) handleProductDeleted(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ProductPayload)
	n.logAction(event, payload)
	return nil
}

func (n *NotificationService) logAction(event events.Event, payload events.ProductPayload) {
	n.logger.Info("product action",
		zap.String("action", string(event.Type)),
		zap.Int64("product_id", event.ProductID),
		zap.String("name", payload.Name),
		zap.Float64("price", payload.Price),
		zap.Int("stock", payload.Stock),
		zap.String("actor_id", event.ActorID))
}

// NotifyLowStock sends one notification per active user listing the products.
func (n *NotificationService) NotifyLowStock(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	users, err := n.users.ListActive(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		n.sendEmailNotificationStub(ctx, &users[i], products)
		n.sendWebhookNotificationStub(ctx, &users[i], products)
	}
	n.logger.Info("low stock notification sent",
		zap.Int("products", len(products)),
		zap.Int("recipients", len(users)))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, user *domain.User, products []domain.Product) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", user.Email),
		zap.Int64s("product_ids", productIDs(products)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, user *domain.User, products []domain.Product) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("user_id", user.ID),
		zap.Int64s("product_ids", productIDs(products)))
}

func productIDs(products []domain.Product) []int64 {
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}
