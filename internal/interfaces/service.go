package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

// Service ports consumed by the HTTP adapter
type OrderService interface {
	Checkout(ctx context.Context, user *domain.User, cmd CheckoutCommand) (*domain.Order, error)
	ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error)
	GetOrder(ctx context.Context, user *domain.User, id int) (*domain.Order, error)
	History(ctx context.Context, user *domain.User, id int) ([]*domain.StatusLog, error)
	ActiveOrders(ctx context.Context, mode *domain.Mode) ([]*domain.Order, error)
	PastOrders(ctx context.Context, mode *domain.Mode) ([]*domain.Order, error)
	Transition(ctx context.Context, staff *domain.User, id int, requested domain.Status) (*domain.Order, error)
}

type MenuService interface {
	List(ctx context.Context) ([]*domain.MenuItem, error)
	Search(ctx context.Context, query string) ([]*domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
	Bestsellers(ctx context.Context) ([]*domain.MenuItem, error)
}

type CartService interface {
	Get(ctx context.Context, user *domain.User) (*domain.Cart, error)
	AddItem(ctx context.Context, user *domain.User, cmd CartItemCommand) (*domain.Cart, error)
	BulkAdd(ctx context.Context, user *domain.User, cmds []CartItemCommand) (*domain.Cart, error)
	Replace(ctx context.Context, user *domain.User, cmds []CartItemCommand) (*domain.Cart, error)
	Adjust(ctx context.Context, user *domain.User, lineID int, action domain.CartAction) (*domain.Cart, error)
	RemoveLine(ctx context.Context, user *domain.User, lineID int) (*domain.Cart, error)
}

// Commands for services
type CheckoutCommand struct {
	Mode        domain.Mode
	Address     *string
	ScheduledAt *time.Time
}

type CartItemCommand struct {
	MenuItemID int
	Quantity   int
}
