package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// store backs both fake repositories so checkout can be checked for
// all-or-nothing behaviour.
type store struct {
	mu         sync.Mutex
	orders     map[int]*domain.Order
	logs       map[int][]*domain.StatusLog
	carts      map[int]*domain.Cart
	nextID     int
	failCreate error
}

func newStore() *store {
	return &store{
		orders: make(map[int]*domain.Order),
		logs:   make(map[int][]*domain.StatusLog),
		carts:  make(map[int]*domain.Cart),
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Lines = append([]domain.OrderLine(nil), o.Lines...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

type fakeOrders struct{ *store }

// CreateFromCart reads the cart under the store lock, as the PostgreSQL
// version does under the cart row lock.
func (f fakeOrders) CreateFromCart(_ context.Context, cartID int, changedBy string, build func([]domain.CartLine) (*domain.Order, error)) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}

	var cart *domain.Cart
	for _, c := range f.carts {
		if c.ID == cartID {
			cart = c
		}
	}
	if cart == nil {
		return nil, fmt.Errorf("cart %d: %w", cartID, domain.ErrNotFound)
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	order, err := build(append([]domain.CartLine(nil), cart.Lines...))
	if err != nil {
		return nil, err
	}

	f.nextID++
	order.ID = f.nextID
	for i := range order.Lines {
		order.Lines[i].ID = i + 1
		order.Lines[i].OrderID = order.ID
	}
	f.orders[order.ID] = cloneOrder(order)
	f.logs[order.ID] = append(f.logs[order.ID], &domain.StatusLog{OrderID: order.ID, Status: order.Status, ChangedBy: changedBy, ChangedAt: order.UpdatedAt})
	cart.Lines = nil
	return order, nil
}

func (f fakeOrders) FindByID(_ context.Context, id int) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (f fakeOrders) List(_ context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Order
	for _, o := range f.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Mode != nil && o.Mode != *filter.Mode {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// UpdateStatus holds the store lock for the whole read-modify-write, the way
// the row lock does in PostgreSQL.
func (f fakeOrders) UpdateStatus(_ context.Context, id int, changedBy string, mutate func(*domain.Order) error) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	o := cloneOrder(stored)
	if err := mutate(o); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	f.orders[id] = cloneOrder(o)
	f.logs[id] = append(f.logs[id], &domain.StatusLog{OrderID: id, Status: o.Status, ChangedBy: changedBy, ChangedAt: o.UpdatedAt})
	return o, nil
}

func (f fakeOrders) GetStatusHistory(_ context.Context, orderID int) ([]*domain.StatusLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.StatusLog(nil), f.logs[orderID]...), nil
}

type fakeCarts struct{ *store }

func (f fakeCarts) GetOrCreate(_ context.Context, userID int) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		c = &domain.Cart{ID: 100 + userID, UserID: userID}
		f.carts[userID] = c
	}
	return &domain.Cart{ID: c.ID, UserID: c.UserID, Lines: append([]domain.CartLine(nil), c.Lines...)}, nil
}

func (f fakeCarts) AddItem(context.Context, int, int, int) error {
	return nil
}

func (f fakeCarts) SetQuantity(context.Context, int, int, int) error {
	return nil
}

func (f fakeCarts) RemoveLine(context.Context, int, int) error {
	return nil
}

func (f fakeCarts) Replace(context.Context, int, []domain.CartLine) error {
	return nil
}

type dispatched struct {
	orderID  int
	status   domain.Status
	previous domain.Status
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []dispatched
}

func (n *fakeNotifier) Dispatch(_ context.Context, o *domain.Order, previous domain.Status, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, dispatched{orderID: o.ID, status: o.Status, previous: previous})
}

func contains(list []domain.Status, s domain.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

var (
	customer = &domain.User{ID: 1, Email: "asha@hostel.test"}
	other    = &domain.User{ID: 2, Email: "ravi@hostel.test"}
	staff    = &domain.User{ID: 9, Email: "counter@canteen.test", IsStaff: true}
)

func item(id int, price string) *domain.MenuItem {
	return &domain.MenuItem{ID: id, Name: fmt.Sprintf("item-%d", id), Price: decimal.RequireFromString(price), IsAvailable: true}
}

func setup(t *testing.T) (*Service, *store, *fakeNotifier) {
	t.Helper()
	st := newStore()
	n := &fakeNotifier{}
	svc := NewService(fakeOrders{st}, fakeCarts{st}, n, logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return svc, st, n
}

func fillCart(st *store, userID int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.carts[userID] = &domain.Cart{
		ID:     100 + userID,
		UserID: userID,
		Lines: []domain.CartLine{
			{ID: 1, MenuItemID: 10, Quantity: 2, Item: item(10, "40")},
			{ID: 2, MenuItemID: 11, Quantity: 1, Item: item(11, "25.50")},
		},
	}
}

func place(t *testing.T, svc *Service, st *store, user *domain.User, mode domain.Mode) *domain.Order {
	t.Helper()
	fillCart(st, user.ID)
	cmd := interfaces.CheckoutCommand{Mode: mode}
	if mode == domain.ModeDelivery {
		addr := "Block C, Room 12"
		cmd.Address = &addr
	}
	o, err := svc.Checkout(context.Background(), user, cmd)
	require.NoError(t, err)
	return o
}

func TestCheckoutEmptyCartCreatesNothing(t *testing.T) {
	svc, st, n := setup(t)

	o, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeTakeAway})

	assert.Nil(t, o)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, st.orders)
	assert.Empty(t, n.calls)
}

func TestCheckoutSnapshotsCartAndClearsIt(t *testing.T) {
	svc, st, n := setup(t)
	fillCart(st, customer.ID)

	o, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeDineIn})
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, 10, o.Lines[0].MenuItemID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, 11, o.Lines[1].MenuItemID)
	assert.Equal(t, 1, o.Lines[1].Quantity)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("105.50").Equal(o.Total()))

	assert.Empty(t, st.carts[customer.ID].Lines)
	require.Len(t, n.calls, 1)
	assert.Equal(t, dispatched{orderID: o.ID, status: domain.StatusPending}, n.calls[0])
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	svc, st, n := setup(t)
	fillCart(st, customer.ID)
	st.failCreate = errors.New("connection reset")

	_, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeTakeAway})

	assert.Error(t, err)
	assert.Empty(t, st.orders)
	assert.Len(t, st.carts[customer.ID].Lines, 2)
	assert.Empty(t, n.calls)
}

func TestCheckoutValidation(t *testing.T) {
	svc, st, _ := setup(t)
	fillCart(st, customer.ID)

	_, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: "drive-in"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mode", verr.Fields[0].Field)
	assert.Len(t, st.carts[customer.ID].Lines, 2)
	assert.Empty(t, st.orders)

	_, err = svc.Checkout(context.Background(), nil, interfaces.CheckoutCommand{Mode: domain.ModeTakeAway})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCheckoutDeliveryWithoutAddress(t *testing.T) {
	svc, st, _ := setup(t)
	fillCart(st, customer.ID)

	o, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeDelivery})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeDelivery, o.Mode)
	assert.Nil(t, o.Address)
	assert.Empty(t, st.carts[customer.ID].Lines)
}

// barrierCarts holds every GetOrCreate caller until all of them have read
// the cart, so each checkout starts from the same full snapshot.
type barrierCarts struct {
	fakeCarts
	ready *sync.WaitGroup
}

func (b barrierCarts) GetOrCreate(ctx context.Context, userID int) (*domain.Cart, error) {
	c, err := b.fakeCarts.GetOrCreate(ctx, userID)
	b.ready.Done()
	b.ready.Wait()
	return c, err
}

func TestConcurrentCheckoutsOfOneCartCreateOneOrder(t *testing.T) {
	st := newStore()
	n := &fakeNotifier{}
	ready := &sync.WaitGroup{}
	ready.Add(2)
	svc := NewService(fakeOrders{st}, barrierCarts{fakeCarts: fakeCarts{st}, ready: ready}, n, logger.Nop())
	fillCart(st, customer.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeTakeAway})
		}(i)
	}
	wg.Wait()

	var placed, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, domain.ErrEmptyCart):
			empty++
		default:
			t.Errorf("unexpected checkout error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, empty)
	assert.Len(t, st.orders, 1)
	assert.Empty(t, st.carts[customer.ID].Lines)
	assert.Len(t, n.calls, 1)
}

// lateAddCarts adds a line to the stored cart right after handing out the
// caller's copy, like a request racing in before the checkout transaction.
type lateAddCarts struct{ fakeCarts }

func (l lateAddCarts) GetOrCreate(ctx context.Context, userID int) (*domain.Cart, error) {
	c, err := l.fakeCarts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	stored := l.carts[userID]
	stored.Lines = append(stored.Lines, domain.CartLine{ID: 3, MenuItemID: 12, Quantity: 3, Item: item(12, "15")})
	l.mu.Unlock()
	return c, nil
}

func TestCheckoutIncludesLineAddedAfterRead(t *testing.T) {
	st := newStore()
	svc := NewService(fakeOrders{st}, lateAddCarts{fakeCarts{st}}, &fakeNotifier{}, logger.Nop())
	fillCart(st, customer.ID)

	o, err := svc.Checkout(context.Background(), customer, interfaces.CheckoutCommand{Mode: domain.ModeDineIn})
	require.NoError(t, err)

	require.Len(t, o.Lines, 3)
	assert.Equal(t, 12, o.Lines[2].MenuItemID)
	assert.Equal(t, 3, o.Lines[2].Quantity)
	assert.Len(t, st.orders[o.ID].Lines, 3)
	assert.Empty(t, st.carts[customer.ID].Lines)
}

func TestServiceWithoutNotifier(t *testing.T) {
	st := newStore()
	svc := NewService(fakeOrders{st}, fakeCarts{st}, nil, logger.Nop())

	o := place(t, svc, st, customer, domain.ModeTakeAway)
	updated, err := svc.Transition(context.Background(), staff, o.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
}

func TestPickupOrderAcceptsOnlyNextStatus(t *testing.T) {
	svc, st, n := setup(t)
	o := place(t, svc, st, customer, domain.ModeTakeAway)

	_, err := svc.Transition(context.Background(), staff, o.ID, domain.StatusReady)
	assert.ErrorIs(t, err, domain.ErrTransitionRejected)
	assert.Equal(t, domain.StatusPending, st.orders[o.ID].Status)

	updated, err := svc.Transition(context.Background(), staff, o.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	require.Len(t, n.calls, 2)
	assert.Equal(t, dispatched{orderID: o.ID, status: domain.StatusConfirmed, previous: domain.StatusPending}, n.calls[1])
}

func TestTransitionToTerminalStampsCompletion(t *testing.T) {
	svc, st, _ := setup(t)
	o := place(t, svc, st, customer, domain.ModeDelivery)

	var last *domain.Order
	for _, s := range domain.ValidTransitions(domain.ModeDelivery)[1:] {
		var err error
		last, err = svc.Transition(context.Background(), staff, o.ID, s)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusDelivered, last.Status)
	require.NotNil(t, last.CompletedAt)

	_, err := svc.Transition(context.Background(), staff, o.ID, domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrTransitionRejected)

	history, err := svc.History(context.Background(), customer, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, domain.StatusDelivered, history[3].Status)
	assert.Equal(t, staff.Email, history[3].ChangedBy)
}

func TestTransitionRequiresStaff(t *testing.T) {
	svc, st, _ := setup(t)
	o := place(t, svc, st, customer, domain.ModeTakeAway)

	_, err := svc.Transition(context.Background(), customer, o.ID, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Transition(context.Background(), staff, 404, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentTransitionsOnDifferentOrders(t *testing.T) {
	svc, st, n := setup(t)

	var ids []int
	for i := 0; i < 20; i++ {
		user := &domain.User{ID: 1000 + i}
		ids = append(ids, place(t, svc, st, user, domain.ModeDineIn).ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for _, s := range domain.ValidTransitions(domain.ModeDineIn)[1:] {
				if _, err := svc.Transition(context.Background(), staff, id, s); err != nil {
					t.Errorf("order %d to %s: %v", id, s, err)
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, domain.StatusCompleted, st.orders[id].Status)
		assert.Len(t, st.logs[id], 4)
	}
	assert.Len(t, n.calls, 20*4)
}

func TestConcurrentTransitionsOnSameOrderDoNotLoseUpdates(t *testing.T) {
	svc, st, _ := setup(t)
	o := place(t, svc, st, customer, domain.ModeTakeAway)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Transition(context.Background(), staff, o.ID, domain.StatusConfirmed); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Len(t, st.logs[o.ID], 2)
}

func TestGetOrderAccess(t *testing.T) {
	svc, st, _ := setup(t)
	o := place(t, svc, st, customer, domain.ModeTakeAway)

	got, err := svc.GetOrder(context.Background(), customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.GetOrder(context.Background(), staff, o.ID)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), other, o.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.History(context.Background(), other, o.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetOrder(context.Background(), customer, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListingsPartitionByStatus(t *testing.T) {
	svc, st, _ := setup(t)
	done := place(t, svc, st, customer, domain.ModeTakeAway)
	for _, s := range domain.ValidTransitions(domain.ModeTakeAway)[1:] {
		_, err := svc.Transition(context.Background(), staff, done.ID, s)
		require.NoError(t, err)
	}
	open := place(t, svc, st, customer, domain.ModeDelivery)
	theirs := place(t, svc, st, other, domain.ModeDineIn)

	active, err := svc.ActiveOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{theirs.ID, open.ID}, orderIDs(active))

	delivery := domain.ModeDelivery
	active, err = svc.ActiveOrders(context.Background(), &delivery)
	require.NoError(t, err)
	assert.Equal(t, []int{open.ID}, orderIDs(active))

	past, err := svc.PastOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{done.ID}, orderIDs(past))

	mine, err := svc.ListOrders(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, []int{open.ID, done.ID}, orderIDs(mine))
}

func orderIDs(orders []*domain.Order) []int {
	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
