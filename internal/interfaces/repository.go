package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

// OrderFilter narrows staff listings. A nil Mode means every mode.
type OrderFilter struct {
	Statuses []domain.Status
	Mode     *domain.Mode
	UserID   *int
}

// Ports for the persistence adapter (Adapter/Postgres)
type OrderRepository interface {
	// CreateFromCart locks the cart, hands the lines it holds at that moment
	// to build, then inserts the built order and empties the cart in the same
	// transaction. A cart without lines yields domain.ErrEmptyCart and nothing
	// is written.
	CreateFromCart(ctx context.Context, cartID int, changedBy string, build func(lines []domain.CartLine) (*domain.Order, error)) (*domain.Order, error)
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	// UpdateStatus locks the order, lets mutate change it, validates and saves
	// it with a status log entry. Nothing is written when mutate fails.
	UpdateStatus(ctx context.Context, id int, changedBy string, mutate func(*domain.Order) error) (*domain.Order, error)
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}

type MenuRepository interface {
	List(ctx context.Context) ([]*domain.MenuItem, error)
	Search(ctx context.Context, query string) ([]*domain.MenuItem, error)
	FindByID(ctx context.Context, id int) (*domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
	Bestsellers(ctx context.Context, since time.Time, limit int) ([]*domain.MenuItem, error)
}

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID int) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, menuItemID, quantity int) error
	SetQuantity(ctx context.Context, cartID, lineID, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID int) error
	Replace(ctx context.Context, cartID int, lines []domain.CartLine) error
}

type UserRepository interface {
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}
