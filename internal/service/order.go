package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fashionshop/order-service/internal/entities"
	"github.com/fashionshop/order-service/pkg/trm"
)

// OrderRepo is everything the aggregate manager needs from the store. Every
// method is transaction-aware: inside txManager.Do the calls share one
// unit-of-work, and the ForUpdate reads hold their row locks until it ends.
type OrderRepo interface {
	VariantForUpdate(ctx context.Context, variantID string) (unitPrice int64, available int, err error)
	AdjustStock(ctx context.Context, variantID string, delta int) error

	NextOrderID(ctx context.Context) (string, error)
	NextCustomerID(ctx context.Context) (string, error)

	CustomerIDByPhone(ctx context.Context, phone string) (string, error)
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	InsertCustomer(ctx context.Context, c entities.Customer) error

	InsertOrder(ctx context.Context, o entities.Order) error
	InsertLines(ctx context.Context, orderID string, lines []entities.OrderLine) error
	Lines(ctx context.Context, orderID string) ([]entities.OrderLine, error)
	DeleteLines(ctx context.Context, orderID string) error
	OrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)
	UpdateHeader(ctx context.Context, orderID string, upd entities.HeaderPatch) error
	SetStatus(ctx context.Context, orderID string, st entities.Status, completed *time.Time) error
	SetPaymentStatus(ctx context.Context, orderID string, ps entities.PaymentStatus) error
	StampCompletedIfUnset(ctx context.Context, orderID string, at time.Time) error
	DeleteOrder(ctx context.Context, orderID string) error
	OrderDetail(ctx context.Context, orderID string) (entities.OrderDetail, error)
	ListOrders(ctx context.Context, limit int) ([]entities.OrderSummary, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entities.OrderEvent) error
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	cache     Cache
	events    EventPublisher
	now       func() time.Time
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, cache Cache, events EventPublisher) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		cache:     cache,
		events:    events,
		now:       time.Now,
	}
}

// CreateOrder reserves stock for every line, assigns the next order id,
// resolves the customer and persists header plus lines — all in one
// unit-of-work. Any failure rolls the whole thing back, so no partial debit
// ever survives.
func (s *orderService) CreateOrder(ctx context.Context, in entities.CreateIntent) (entities.CreateResult, error) {
	channel, err := validateCreate(in)
	if err != nil {
		return entities.CreateResult{}, err
	}

	var result entities.CreateResult
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		customerID := in.CustomerID
		if customerID != "" {
			ok, err := s.repo.CustomerExists(ctx, customerID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("customer %s: %w", customerID, entities.ErrCustomerNotFound)
			}
		} else if in.CustomerPhone != "" {
			customerID, err = s.resolveCustomer(ctx, in)
			if err != nil {
				return err
			}
		}

		lines, subtotal, err := s.reserveLines(ctx, in.Items, true)
		if err != nil {
			return err
		}

		orderID, err := s.repo.NextOrderID(ctx)
		if err != nil {
			return err
		}

		order := entities.Order{
			OrderID:         orderID,
			CustomerID:      customerID,
			StaffID:         in.StaffID,
			DeliveryStaffID: in.DeliveryStaffID,
			Channel:         channel,
			Subtotal:        subtotal,
			ShippingCost:    in.ShippingCost,
			FinalTotal:      subtotal + in.ShippingCost,
			Status:          entities.StatusProcessing,
			PaymentStatus:   entities.PaymentUnpaid,
			PaymentMethod:   entities.NormalizePaymentMethod(in.PaymentMethod),
			DirectDelivery:  in.DirectDelivery,
			OrderDate:       s.now(),
		}
		// Point-of-sale orders are fulfilled and paid on the spot.
		if in.DirectDelivery {
			completed := s.now()
			order.Status = entities.StatusCompleted
			order.PaymentStatus = entities.PaymentPaid
			order.CompletedDate = &completed
		}

		if err := s.repo.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := s.repo.InsertLines(ctx, orderID, lines); err != nil {
			return err
		}

		result = entities.CreateResult{
			OrderID:       orderID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Subtotal:      subtotal,
			FinalTotal:    order.FinalTotal,
		}
		return nil
	})
	if err != nil {
		return entities.CreateResult{}, err
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", result.OrderID), slog.Int64("final_total", result.FinalTotal))
	s.publish(ctx, entities.OrderEvent{
		Type:    entities.EventOrderCreated,
		OrderID: result.OrderID,
		Status:  string(result.Status),
		Payment: string(result.PaymentStatus),
		Total:   result.FinalTotal,
		At:      s.now(),
	})
	return result, nil
}

// GetOrder serves the joined read model, from cache when a fresh copy exists.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (entities.OrderDetail, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var detail entities.OrderDetail
		if err := detail.Unmarshal(data); err == nil {
			return detail, nil
		}
		s.cache.Remove(orderID)
	}

	detail, err := s.repo.OrderDetail(ctx, orderID)
	if err != nil {
		return entities.OrderDetail{}, err
	}

	if data, err := detail.Marshal(); err == nil {
		s.cache.Set(orderID, data)
	}
	return detail, nil
}

func (s *orderService) ListOrders(ctx context.Context, limit int) ([]entities.OrderSummary, error) {
	return s.repo.ListOrders(ctx, limit)
}

// reserveLines locks each variant, checks stock and debits it, capturing the
// unit price at the instant of reservation. allowOverride lets a create record
// a previously quoted price; updates always take the live price.
func (s *orderService) reserveLines(ctx context.Context, items []entities.LineIntent, allowOverride bool) ([]entities.OrderLine, int64, error) {
	lines := make([]entities.OrderLine, 0, len(items))
	var subtotal int64

	for _, it := range items {
		price, available, err := s.repo.VariantForUpdate(ctx, it.VariantID)
		if err != nil {
			return nil, 0, err
		}
		if available < it.Quantity {
			return nil, 0, fmt.Errorf("variant %s has %d left, %d requested: %w",
				it.VariantID, available, it.Quantity, entities.ErrInsufficientStock)
		}
		if allowOverride && it.PriceAtOrder > 0 {
			price = it.PriceAtOrder
		}
		if err := s.repo.AdjustStock(ctx, it.VariantID, -it.Quantity); err != nil {
			return nil, 0, err
		}

		lines = append(lines, entities.OrderLine{
			VariantID:    it.VariantID,
			Quantity:     it.Quantity,
			PriceAtOrder: price,
		})
		subtotal += price * int64(it.Quantity)
	}
	return lines, subtotal, nil
}

// resolveCustomer finds a customer by phone or creates one inside the order's
// transaction. An existing profile is returned as-is: supplied name and
// address never overwrite it.
func (s *orderService) resolveCustomer(ctx context.Context, in entities.CreateIntent) (string, error) {
	id, err := s.repo.CustomerIDByPhone(ctx, in.CustomerPhone)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, entities.ErrCustomerNotFound) {
		return "", err
	}

	id, err = s.repo.NextCustomerID(ctx)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = entities.WalkInName(in.CustomerPhone)
	}
	customer := entities.Customer{
		CustomerID: id,
		FullName:   name,
		Phone:      in.CustomerPhone,
		Address:    in.CustomerAddress,
	}
	if err := s.repo.InsertCustomer(ctx, customer); err != nil {
		return "", err
	}
	return id, nil
}

func (s *orderService) publish(ctx context.Context, event entities.OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event",
			slog.String("type", event.Type), slog.String("order_id", event.OrderID), slog.Any("error", err))
	}
}

func validateCreate(in entities.CreateIntent) (entities.Channel, error) {
	if strings.TrimSpace(in.StaffID) == "" {
		return "", fmt.Errorf("staff id is required: %w", entities.ErrInvalidOrder)
	}
	channel, ok := entities.ParseChannel(string(in.Channel))
	if !ok {
		return "", fmt.Errorf("unknown channel %q: %w", in.Channel, entities.ErrInvalidOrder)
	}
	// Online orders must be attributable to a real customer for delivery.
	if channel == entities.ChannelOnline && in.CustomerID == "" && in.CustomerPhone == "" {
		return "", fmt.Errorf("online order requires a customer: %w", entities.ErrInvalidOrder)
	}
	if err := validateItems(in.Items, in.ShippingCost); err != nil {
		return "", err
	}
	return channel, nil
}

func validateItems(items []entities.LineIntent, shippingCost int64) error {
	if len(items) == 0 {
		return fmt.Errorf("order has no line items: %w", entities.ErrInvalidOrder)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.VariantID) == "" {
			return fmt.Errorf("line item without variant id: %w", entities.ErrInvalidOrder)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("variant %s: quantity must be positive: %w", it.VariantID, entities.ErrInvalidOrder)
		}
		// One line per variant: the line set keys on (order, variant).
		if seen[it.VariantID] {
			return fmt.Errorf("variant %s appears more than once: %w", it.VariantID, entities.ErrInvalidOrder)
		}
		seen[it.VariantID] = true
	}
	if shippingCost < 0 {
		return fmt.Errorf("negative shipping cost: %w", entities.ErrInvalidOrder)
	}
	return nil
}
