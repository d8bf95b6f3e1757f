package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fashionshop/order-service/internal/entities"
	"github.com/fashionshop/order-service/internal/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, svc handler.OrderService, items ...entities.LineIntent) string {
	t.Helper()
	res, err := svc.CreateOrder(context.Background(), createIntent(items...))
	require.NoError(t, err)
	return res.OrderID
}

func TestOrderService_UpdateOrder(t *testing.T) {
	t.Run("disjoint line set nets to old credited, new debited", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		store.addVariant("V2", 2000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 4})
		require.Equal(t, 6, store.stock["V1"])

		total, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:        []entities.LineIntent{{VariantID: "V2", Quantity: 3}},
			ShippingCost: 500,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(3*2000+500), total)
		assert.Equal(t, 10, store.stock["V1"])
		assert.Equal(t, 7, store.stock["V2"])

		lines := store.lines[orderID]
		require.Len(t, lines, 1)
		assert.Equal(t, "V2", lines[0].VariantID)
	})

	t.Run("growing a line checks against the post-credit count", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 5)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 4})
		require.Equal(t, 1, store.stock["V1"])

		// 4 credited back makes 5 available; requesting all 5 must pass.
		_, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:        []entities.LineIntent{{VariantID: "V1", Quantity: 5}},
			ShippingCost: 500,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, store.stock["V1"])
	})

	t.Run("insufficient stock rolls everything back", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 5)
		store.addVariant("V2", 2000, 2)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 3})
		require.Equal(t, 2, store.stock["V1"])

		_, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:        []entities.LineIntent{{VariantID: "V2", Quantity: 3}},
			ShippingCost: 500,
		})
		assert.ErrorIs(t, err, entities.ErrInsufficientStock)

		// Old debit still in place, old lines intact.
		assert.Equal(t, 2, store.stock["V1"])
		assert.Equal(t, 2, store.stock["V2"])
		lines := store.lines[orderID]
		require.Len(t, lines, 1)
		assert.Equal(t, "V1", lines[0].VariantID)
		assert.Equal(t, int64(3*1000+500), store.orders[orderID].FinalTotal)
	})

	t.Run("totals come from live prices, overrides ignored", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		total, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:        []entities.LineIntent{{VariantID: "V1", Quantity: 2, PriceAtOrder: 1}},
			ShippingCost: 0,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), total)
	})

	t.Run("optional fields are applied and cache invalidated", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, cache, events := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})
		_, err := svc.GetOrder(context.Background(), orderID)
		require.NoError(t, err)

		pm := "transfer"
		ds := "EMP9"
		st := "Shipping"
		stParsed, _ := entities.ParseStatus(st)
		_, err = svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:           []entities.LineIntent{{VariantID: "V1", Quantity: 1}},
			ShippingCost:    700,
			PaymentMethod:   &pm,
			DeliveryStaffID: &ds,
			Status:          &stParsed,
		})
		require.NoError(t, err)

		stored := store.orders[orderID]
		assert.Equal(t, "TRANSFER", stored.PaymentMethod)
		assert.Equal(t, "EMP9", stored.DeliveryStaffID)
		assert.Equal(t, entities.StatusShipping, stored.Status)
		assert.Equal(t, int64(700), stored.ShippingCost)

		_, cached := cache.Get(orderID)
		assert.False(t, cached)
		assert.Contains(t, events.types(), entities.EventOrderUpdated)
	})

	t.Run("illegal status via update is rejected", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 2})
		st := entities.StatusCompleted
		_, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items:        []entities.LineIntent{{VariantID: "V1", Quantity: 1}},
			ShippingCost: 0,
			Status:       &st,
		})
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
		// Rolled back to the original two-unit debit.
		assert.Equal(t, 8, store.stock["V1"])
	})

	t.Run("duplicate variant in the new line set is rejected", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 2})
		_, err := svc.UpdateOrder(context.Background(), orderID, entities.UpdateIntent{
			Items: []entities.LineIntent{
				{VariantID: "V1", Quantity: 1},
				{VariantID: "V1", Quantity: 3},
			},
		})
		assert.ErrorIs(t, err, entities.ErrInvalidOrder)
		assert.Equal(t, 8, store.stock["V1"])
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _ := newTestService(newFakeStore())
		_, err := svc.UpdateOrder(context.Background(), "ORD404", entities.UpdateIntent{
			Items: []entities.LineIntent{{VariantID: "V1", Quantity: 1}},
		})
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}

func TestOrderService_TransitionStatus(t *testing.T) {
	t.Run("happy path stamps completion once", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		_, err := svc.TransitionStatus(context.Background(), orderID, entities.StatusShipping)
		require.NoError(t, err)
		assert.Nil(t, store.orders[orderID].CompletedDate)

		_, err = svc.TransitionStatus(context.Background(), orderID, entities.StatusCompleted)
		require.NoError(t, err)
		completed := store.orders[orderID].CompletedDate
		require.NotNil(t, completed)
		assert.WithinDuration(t, time.Now(), *completed, time.Minute)
	})

	t.Run("skipping shipping is rejected", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		_, err := svc.TransitionStatus(context.Background(), orderID, entities.StatusCompleted)
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
		assert.Equal(t, entities.StatusProcessing, store.orders[orderID].Status)
	})

	t.Run("cancel credits stock exactly once", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 4})
		require.Equal(t, 6, store.stock["V1"])

		_, err := svc.TransitionStatus(context.Background(), orderID, entities.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 10, store.stock["V1"])

		// Cancelling again is a no-op, not a second credit.
		_, err = svc.TransitionStatus(context.Background(), orderID, entities.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 10, store.stock["V1"])
	})

	t.Run("transition to current value is a no-op", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		st, err := svc.TransitionStatus(context.Background(), orderID, entities.StatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusProcessing, st)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _ := newTestService(newFakeStore())
		_, err := svc.TransitionStatus(context.Background(), "ORD404", entities.StatusShipping)
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}

func TestOrderService_TransitionPayment(t *testing.T) {
	t.Run("paid stamps completion only when unset", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		_, err := svc.TransitionPayment(context.Background(), orderID, entities.PaymentPaid)
		require.NoError(t, err)
		first := store.orders[orderID].CompletedDate
		require.NotNil(t, first)

		// Refund later must not move the completion time.
		_, err = svc.TransitionPayment(context.Background(), orderID, entities.PaymentRefunded)
		require.NoError(t, err)
		assert.Equal(t, first, store.orders[orderID].CompletedDate)
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		svc, _, _ := newTestService(store)

		orderID := seedOrder(t, svc, entities.LineIntent{VariantID: "V1", Quantity: 1})

		_, err := svc.TransitionPayment(context.Background(), orderID, entities.PaymentRefunded)
		require.NoError(t, err)

		_, err = svc.TransitionPayment(context.Background(), orderID, entities.PaymentPaid)
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
	})
}

func TestOrderService_DeleteOrder(t *testing.T) {
	t.Run("delete after create restores every counter", func(t *testing.T) {
		store := newFakeStore()
		store.addVariant("V1", 1000, 10)
		store.addVariant("V2", 2000, 3)
		svc, _, events := newTestService(store)

		orderID := seedOrder(t, svc,
			entities.LineIntent{VariantID: "V1", Quantity: 4},
			entities.LineIntent{VariantID: "V2", Quantity: 2},
		)
		require.Equal(t, 6, store.stock["V1"])
		require.Equal(t, 1, store.stock["V2"])

		require.NoError(t, svc.DeleteOrder(context.Background(), orderID))

		assert.Equal(t, 10, store.stock["V1"])
		assert.Equal(t, 3, store.stock["V2"])
		assert.Empty(t, store.orders)
		assert.Empty(t, store.lines[orderID])
		assert.Contains(t, events.types(), entities.EventOrderDeleted)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _ := newTestService(newFakeStore())
		err := svc.DeleteOrder(context.Background(), "ORD404")
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}
