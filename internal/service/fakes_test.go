package service_test

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fashionshop/order-service/internal/entities"
)

// fakeStore is an in-memory stand-in for the postgres repo. It never locks on
// its own: fakeTxManager serializes whole units-of-work, which models the
// row-lock discipline the real store relies on, and restores a snapshot on
// error to model rollback.
type fakeStore struct {
	mu sync.Mutex

	stock     map[string]int
	price     map[string]int64
	orders    map[string]entities.Order
	lines     map[string][]entities.OrderLine
	customers map[string]entities.Customer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stock:     make(map[string]int),
		price:     make(map[string]int64),
		orders:    make(map[string]entities.Order),
		lines:     make(map[string][]entities.OrderLine),
		customers: make(map[string]entities.Customer),
	}
}

func (f *fakeStore) addVariant(id string, price int64, qty int) {
	f.price[id] = price
	f.stock[id] = qty
}

type storeSnapshot struct {
	stock     map[string]int
	orders    map[string]entities.Order
	lines     map[string][]entities.OrderLine
	customers map[string]entities.Customer
}

func (f *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		stock:     make(map[string]int, len(f.stock)),
		orders:    make(map[string]entities.Order, len(f.orders)),
		lines:     make(map[string][]entities.OrderLine, len(f.lines)),
		customers: make(map[string]entities.Customer, len(f.customers)),
	}
	for k, v := range f.stock {
		snap.stock[k] = v
	}
	for k, v := range f.orders {
		snap.orders[k] = v
	}
	for k, v := range f.lines {
		snap.lines[k] = append([]entities.OrderLine(nil), v...)
	}
	for k, v := range f.customers {
		snap.customers[k] = v
	}
	return snap
}

func (f *fakeStore) restore(snap storeSnapshot) {
	f.stock = snap.stock
	f.orders = snap.orders
	f.lines = snap.lines
	f.customers = snap.customers
}

func (f *fakeStore) VariantForUpdate(_ context.Context, variantID string) (int64, int, error) {
	price, ok := f.price[variantID]
	if !ok {
		return 0, 0, fmt.Errorf("variant %s: %w", variantID, entities.ErrVariantNotFound)
	}
	return price, f.stock[variantID], nil
}

func (f *fakeStore) AdjustStock(_ context.Context, variantID string, delta int) error {
	if _, ok := f.price[variantID]; !ok {
		return fmt.Errorf("variant %s: %w", variantID, entities.ErrVariantNotFound)
	}
	f.stock[variantID] += delta
	return nil
}

func (f *fakeStore) NextOrderID(_ context.Context) (string, error) {
	next := f.maxSuffix(f.orderIDs(), "ORD") + 1
	if next > 999 {
		return "", entities.ErrIDExhausted
	}
	return fmt.Sprintf("ORD%03d", next), nil
}

func (f *fakeStore) NextCustomerID(_ context.Context) (string, error) {
	ids := make([]string, 0, len(f.customers))
	for id := range f.customers {
		ids = append(ids, id)
	}
	return "CUS" + strconv.Itoa(f.maxSuffix(ids, "CUS")+1), nil
}

func (f *fakeStore) orderIDs() []string {
	ids := make([]string, 0, len(f.orders))
	for id := range f.orders {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeStore) maxSuffix(ids []string, prefix string) int {
	max := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

func (f *fakeStore) CustomerIDByPhone(_ context.Context, phone string) (string, error) {
	for _, c := range f.customers {
		if c.Phone == phone {
			return c.CustomerID, nil
		}
	}
	return "", entities.ErrCustomerNotFound
}

func (f *fakeStore) CustomerExists(_ context.Context, customerID string) (bool, error) {
	_, ok := f.customers[customerID]
	return ok, nil
}

func (f *fakeStore) InsertCustomer(_ context.Context, c entities.Customer) error {
	if _, ok := f.customers[c.CustomerID]; ok {
		return fmt.Errorf("customer %s: %w", c.CustomerID, entities.ErrConflict)
	}
	for _, existing := range f.customers {
		if existing.Phone == c.Phone {
			return fmt.Errorf("customer %s: %w", c.CustomerID, entities.ErrConflict)
		}
	}
	f.customers[c.CustomerID] = c
	return nil
}

func (f *fakeStore) InsertOrder(_ context.Context, o entities.Order) error {
	if _, ok := f.orders[o.OrderID]; ok {
		return fmt.Errorf("order %s: %w", o.OrderID, entities.ErrConflict)
	}
	f.orders[o.OrderID] = o
	return nil
}

func (f *fakeStore) InsertLines(_ context.Context, orderID string, lines []entities.OrderLine) error {
	for _, l := range lines {
		l.OrderID = orderID
		f.lines[orderID] = append(f.lines[orderID], l)
	}
	return nil
}

func (f *fakeStore) Lines(_ context.Context, orderID string) ([]entities.OrderLine, error) {
	return append([]entities.OrderLine(nil), f.lines[orderID]...), nil
}

func (f *fakeStore) DeleteLines(_ context.Context, orderID string) error {
	delete(f.lines, orderID)
	return nil
}

func (f *fakeStore) OrderForUpdate(_ context.Context, orderID string) (entities.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) UpdateHeader(_ context.Context, orderID string, upd entities.HeaderPatch) error {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.Subtotal = upd.Subtotal
	o.ShippingCost = upd.ShippingCost
	o.FinalTotal = upd.FinalTotal
	if upd.PaymentMethod != nil {
		o.PaymentMethod = *upd.PaymentMethod
	}
	if upd.DeliveryStaffID != nil {
		o.DeliveryStaffID = *upd.DeliveryStaffID
	}
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, orderID string, st entities.Status, completed *time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.Status = st
	o.CompletedDate = completed
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, orderID string, ps entities.PaymentStatus) error {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.PaymentStatus = ps
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) StampCompletedIfUnset(_ context.Context, orderID string, at time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	if o.CompletedDate == nil {
		o.CompletedDate = &at
		f.orders[orderID] = o
	}
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, orderID string) error {
	if _, ok := f.orders[orderID]; !ok {
		return entities.ErrOrderNotFound
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeStore) OrderDetail(_ context.Context, orderID string) (entities.OrderDetail, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.OrderDetail{}, entities.ErrOrderNotFound
	}
	detail := entities.OrderDetail{Order: o}
	if c, ok := f.customers[o.CustomerID]; ok {
		detail.CustomerName = c.FullName
		detail.CustomerPhone = c.Phone
		detail.CustomerAddress = c.Address
	}
	for _, l := range f.lines[orderID] {
		detail.Lines = append(detail.Lines, entities.LineDetail{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			PriceAtOrder: l.PriceAtOrder,
			LineTotal:    l.Total(),
		})
	}
	return detail, nil
}

func (f *fakeStore) ListOrders(_ context.Context, limit int) ([]entities.OrderSummary, error) {
	ids := f.orderIDs()
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	if len(ids) > limit {
		ids = ids[:limit]
	}
	result := make([]entities.OrderSummary, 0, len(ids))
	for _, id := range ids {
		o := f.orders[id]
		result = append(result, entities.OrderSummary{
			OrderID:       o.OrderID,
			FinalTotal:    o.FinalTotal,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			Channel:       o.Channel,
			OrderDate:     o.OrderDate,
		})
	}
	return result, nil
}

// fakeTxManager serializes units-of-work on the store mutex and rolls back by
// restoring a snapshot, mirroring the all-or-nothing contract of the real one.
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	if err := callback(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	removed []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *fakeCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.removed = append(c.removed, key)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []entities.OrderEvent
}

func (p *fakeEvents) Publish(_ context.Context, event entities.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakeEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
