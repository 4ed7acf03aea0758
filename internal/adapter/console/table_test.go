package console

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type fakeOrders struct {
	interfaces.OrderService
	active  []*domain.Order
	past    []*domain.Order
	err     error
	gotMode *domain.Mode
}

func (f *fakeOrders) ActiveOrders(_ context.Context, mode *domain.Mode) ([]*domain.Order, error) {
	f.gotMode = mode
	return f.active, f.err
}

func (f *fakeOrders) PastOrders(_ context.Context, mode *domain.Mode) ([]*domain.Order, error) {
	return f.past, nil
}

func sampleOrder() *domain.Order {
	addr := "Hostel B, room 12"
	return &domain.Order{
		ID:          7,
		UserID:      3,
		Mode:        domain.ModeDelivery,
		Status:      domain.StatusConfirmed,
		Address:     &addr,
		ScheduledAt: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
		Lines: []domain.OrderLine{
			{MenuItemID: 1, Quantity: 2, Item: &domain.MenuItem{Name: "Veg Thali", Price: decimal.RequireFromString("60")}},
			{MenuItemID: 4, Quantity: 1},
		},
	}
}

func TestRenderOrders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderOrders(&buf, "Active orders", []*domain.Order{sampleOrder()}))

	out := buf.String()
	assert.Contains(t, out, "Active orders (1)")
	assert.Contains(t, out, "out_for_delivery")
	assert.Contains(t, out, "2x Veg Thali")
	assert.Contains(t, out, "1x #4")
	assert.Contains(t, out, "Hostel B, room 12")
}

func TestDashboardPrint(t *testing.T) {
	done := sampleOrder()
	done.ID = 8
	done.Status = domain.StatusDelivered

	orders := &fakeOrders{active: []*domain.Order{sampleOrder()}, past: []*domain.Order{done}}
	var buf bytes.Buffer
	mode := domain.ModeDelivery

	require.NoError(t, NewDashboard(orders, &buf).Print(context.Background(), &mode))
	assert.Equal(t, &mode, orders.gotMode)
	assert.Contains(t, buf.String(), "Active orders (1)")
	assert.Contains(t, buf.String(), "Past orders (1)")
}

func TestDashboardPrintError(t *testing.T) {
	boom := errors.New("db down")
	orders := &fakeOrders{err: boom}

	err := NewDashboard(orders, &bytes.Buffer{}).Print(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
