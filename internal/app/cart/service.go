package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type Service struct {
	carts  interfaces.CartRepository
	menu   interfaces.MenuRepository
	logger logger.Logger
}

func NewService(carts interfaces.CartRepository, menu interfaces.MenuRepository, logger logger.Logger) *Service {
	return &Service{
		carts:  carts,
		menu:   menu,
		logger: logger,
	}
}

func (s *Service) Get(ctx context.Context, user *domain.User) (*domain.Cart, error) {
	if user == nil {
		return nil, domain.ErrForbidden
	}
	return s.carts.GetOrCreate(ctx, user.ID)
}

// AddItem adds to the existing line for the item when there is one.
func (s *Service) AddItem(ctx context.Context, user *domain.User, cmd interfaces.CartItemCommand) (*domain.Cart, error) {
	cart, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, []interfaces.CartItemCommand{cmd}, ""); err != nil {
		return nil, err
	}

	if err := s.carts.AddItem(ctx, cart.ID, cmd.MenuItemID, cmd.Quantity); err != nil {
		return nil, err
	}
	s.logger.Debug("cart_item_added", "Item added to cart", "", map[string]interface{}{
		"user_id":      user.ID,
		"menu_item_id": cmd.MenuItemID,
		"quantity":     cmd.Quantity,
	})
	return s.carts.GetOrCreate(ctx, user.ID)
}

// BulkAdd adds every item or none of them.
func (s *Service) BulkAdd(ctx context.Context, user *domain.User, cmds []interfaces.CartItemCommand) (*domain.Cart, error) {
	cart, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	added, err := s.resolve(ctx, cmds, "items")
	if err != nil {
		return nil, err
	}

	merged := merge(append(append([]domain.CartLine(nil), cart.Lines...), added...))
	if err := s.carts.Replace(ctx, cart.ID, merged); err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, user.ID)
}

// Replace swaps the cart content for the given items.
func (s *Service) Replace(ctx context.Context, user *domain.User, cmds []interfaces.CartItemCommand) (*domain.Cart, error) {
	cart, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}

	var lines []domain.CartLine
	if len(cmds) > 0 {
		lines, err = s.resolve(ctx, cmds, "items")
		if err != nil {
			return nil, err
		}
	}

	if err := s.carts.Replace(ctx, cart.ID, merge(lines)); err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, user.ID)
}

// Adjust increments or decrements a line. Decrementing a line of one removes it.
func (s *Service) Adjust(ctx context.Context, user *domain.User, lineID int, action domain.CartAction) (*domain.Cart, error) {
	cart, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}

	line, ok := cart.Line(lineID)
	if !ok {
		return nil, fmt.Errorf("cart line %d: %w", lineID, domain.ErrNotFound)
	}

	qty, err := line.Adjust(action)
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		err = s.carts.RemoveLine(ctx, cart.ID, lineID)
	} else {
		err = s.carts.SetQuantity(ctx, cart.ID, lineID, qty)
	}
	if err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, user.ID)
}

func (s *Service) RemoveLine(ctx context.Context, user *domain.User, lineID int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveLine(ctx, cart.ID, lineID); err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, user.ID)
}

// resolve checks every command against the menu and reports all problems at
// once. prefix names the request field holding the list, if any.
func (s *Service) resolve(ctx context.Context, cmds []interfaces.CartItemCommand, prefix string) ([]domain.CartLine, error) {
	verr := &domain.ValidationError{}
	if len(cmds) == 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: prefix, Message: "at least one item is required"})
		return nil, verr
	}

	lines := make([]domain.CartLine, 0, len(cmds))
	for i, cmd := range cmds {
		field := func(name string) string {
			if prefix == "" {
				return name
			}
			return fmt.Sprintf("%s[%d].%s", prefix, i, name)
		}

		if cmd.Quantity < 1 {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: field("quantity"), Message: "quantity must be at least 1"})
			continue
		}

		item, err := s.menu.FindByID(ctx, cmd.MenuItemID)
		if errors.Is(err, domain.ErrNotFound) {
			if prefix == "" {
				return nil, err
			}
			verr.Fields = append(verr.Fields, domain.FieldError{Field: field("menu_item_id"), Message: "menu item does not exist"})
			continue
		}
		if err != nil {
			return nil, err
		}
		if !item.IsAvailable {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: field("menu_item_id"), Message: item.Name + " is not available right now"})
			continue
		}

		lines = append(lines, domain.CartLine{MenuItemID: item.ID, Quantity: cmd.Quantity, Item: item})
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return lines, nil
}

// merge folds lines for the same menu item together, keeping first-seen order.
func merge(lines []domain.CartLine) []domain.CartLine {
	var out []domain.CartLine
	index := make(map[int]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.MenuItemID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.MenuItemID] = len(out)
		out = append(out, domain.CartLine{MenuItemID: l.MenuItemID, Quantity: l.Quantity, Item: l.Item})
	}
	return out
}
