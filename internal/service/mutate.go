package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fashionshop/order-service/internal/entities"
)

// UpdateOrder replaces the whole line set. Old lines are credited back before
// new debits are applied, all inside one unit-of-work, so the net inventory
// effect is exactly the delta between the two sets. Totals are recomputed
// from live prices.
func (s *orderService) UpdateOrder(ctx context.Context, orderID string, in entities.UpdateIntent) (int64, error) {
	if err := validateItems(in.Items, in.ShippingCost); err != nil {
		return 0, err
	}

	var finalTotal int64
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		oldLines, err := s.repo.Lines(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.creditLines(ctx, oldLines); err != nil {
			return err
		}
		if err := s.repo.DeleteLines(ctx, orderID); err != nil {
			return err
		}

		// Stock checks below run against the post-credit counts.
		newLines, subtotal, err := s.reserveLines(ctx, in.Items, false)
		if err != nil {
			return err
		}
		if err := s.repo.InsertLines(ctx, orderID, newLines); err != nil {
			return err
		}

		finalTotal = subtotal + in.ShippingCost
		patch := entities.HeaderPatch{
			Subtotal:        subtotal,
			ShippingCost:    in.ShippingCost,
			FinalTotal:      finalTotal,
			DeliveryStaffID: in.DeliveryStaffID,
		}
		if in.PaymentMethod != nil {
			pm := entities.NormalizePaymentMethod(*in.PaymentMethod)
			patch.PaymentMethod = &pm
		}
		if err := s.repo.UpdateHeader(ctx, orderID, patch); err != nil {
			return err
		}

		if in.Status != nil {
			if err := s.applyStatus(ctx, orderID, order.Status, *in.Status, newLines); err != nil {
				return err
			}
		}
		if in.PaymentStatus != nil {
			if err := s.applyPaymentStatus(ctx, orderID, order.PaymentStatus, *in.PaymentStatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.cache.Remove(orderID)
	s.logger.InfoContext(ctx, "order updated",
		slog.String("order_id", orderID), slog.Int64("final_total", finalTotal))
	s.publish(ctx, entities.OrderEvent{
		Type:    entities.EventOrderUpdated,
		OrderID: orderID,
		Total:   finalTotal,
		At:      s.now(),
	})
	return finalTotal, nil
}

// TransitionStatus moves the order through the state machine. Entering
// Cancelled credits every line back to inventory exactly once; a repeated
// cancel is a no-op.
func (s *orderService) TransitionStatus(ctx context.Context, orderID string, newStatus entities.Status) (entities.Status, error) {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		lines, err := s.repo.Lines(ctx, orderID)
		if err != nil {
			return err
		}
		return s.applyStatus(ctx, orderID, order.Status, newStatus, lines)
	})
	if err != nil {
		return "", err
	}

	s.cache.Remove(orderID)
	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID), slog.String("status", string(newStatus)))
	s.publish(ctx, entities.OrderEvent{
		Type:    entities.EventOrderStatusChanged,
		OrderID: orderID,
		Status:  string(newStatus),
		At:      s.now(),
	})
	return newStatus, nil
}

// TransitionPayment moves the payment axis. Reaching Paid stamps the
// completion time only when it is not already set.
func (s *orderService) TransitionPayment(ctx context.Context, orderID string, newStatus entities.PaymentStatus) (entities.PaymentStatus, error) {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		return s.applyPaymentStatus(ctx, orderID, order.PaymentStatus, newStatus)
	})
	if err != nil {
		return "", err
	}

	s.cache.Remove(orderID)
	s.logger.InfoContext(ctx, "order payment changed",
		slog.String("order_id", orderID), slog.String("payment_status", string(newStatus)))
	s.publish(ctx, entities.OrderEvent{
		Type:    entities.EventOrderPaymentChanged,
		OrderID: orderID,
		Payment: string(newStatus),
		At:      s.now(),
	})
	return newStatus, nil
}

// DeleteOrder hard-removes the order after returning its stock. Unlike
// cancellation, no record survives for audit.
func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.repo.OrderForUpdate(ctx, orderID); err != nil {
			return err
		}
		lines, err := s.repo.Lines(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.creditLines(ctx, lines); err != nil {
			return err
		}
		if err := s.repo.DeleteLines(ctx, orderID); err != nil {
			return err
		}
		return s.repo.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	s.cache.Remove(orderID)
	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", orderID))
	s.publish(ctx, entities.OrderEvent{
		Type:    entities.EventOrderDeleted,
		OrderID: orderID,
		At:      s.now(),
	})
	return nil
}

// applyStatus validates and writes a status change within the open
// unit-of-work. lines is the current line set, credited back when the order
// enters Cancelled.
func (s *orderService) applyStatus(ctx context.Context, orderID string, current, next entities.Status, lines []entities.OrderLine) error {
	if current == next {
		return nil
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", current, next, entities.ErrInvalidTransition)
	}

	var completedAt *time.Time
	if next == entities.StatusCompleted {
		now := s.now()
		completedAt = &now
	}
	if err := s.repo.SetStatus(ctx, orderID, next, completedAt); err != nil {
		return err
	}

	if next == entities.StatusCancelled {
		return s.creditLines(ctx, lines)
	}
	return nil
}

func (s *orderService) applyPaymentStatus(ctx context.Context, orderID string, current, next entities.PaymentStatus) error {
	if current == next {
		return nil
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("payment %s -> %s: %w", current, next, entities.ErrInvalidTransition)
	}
	if err := s.repo.SetPaymentStatus(ctx, orderID, next); err != nil {
		return err
	}
	if next == entities.PaymentPaid {
		return s.repo.StampCompletedIfUnset(ctx, orderID, s.now())
	}
	return nil
}

func (s *orderService) creditLines(ctx context.Context, lines []entities.OrderLine) error {
	for _, l := range lines {
		if err := s.repo.AdjustStock(ctx, l.VariantID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}
