package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type cartRepository struct {
	db DB
}

func NewCartRepository(db DB) interfaces.CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the user's cart with its lines, creating it on first use.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID int) (*domain.Cart, error) {
	if _, err := r.db.Exec(ctx, `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	cart := &domain.Cart{UserID: userID}
	if err := r.db.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cart.ID); err != nil {
		return nil, notFound(err, "cart of user", userID)
	}

	lines, err := loadCartLines(ctx, r.db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return cart, nil
}

// loadCartLines reads a cart's lines with their menu items. Inside a
// transaction that holds the cart lock it sees exactly what checkout clears.
func loadCartLines(ctx context.Context, q querier, cartID int) ([]domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.menu_item_id, ci.quantity, ` + menuColumns + `
		FROM cart_items ci
		JOIN menu_items m ON m.id = ci.menu_item_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`
	rows, err := q.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		item, err := scanMenuItem(cartLineRow{rows: rows, line: &line})
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		line.Item = item
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}
	return lines, nil
}

type cartLineRow struct {
	rows Rows
	line *domain.CartLine
}

func (r cartLineRow) Scan(dest ...any) error {
	all := append([]any{&r.line.ID, &r.line.CartID, &r.line.MenuItemID, &r.line.Quantity}, dest...)
	return r.rows.Scan(all...)
}

// AddItem adds quantity to the line for the menu item, creating it if needed.
func (r *cartRepository) AddItem(ctx context.Context, cartID, menuItemID, quantity int) error {
	query := `
		INSERT INTO cart_items (cart_id, menu_item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, menu_item_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`
	if _, err := r.db.Exec(ctx, query, cartID, menuItemID, quantity); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, cartID, lineID, quantity int) error {
	tag, err := r.db.Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3`, quantity, lineID, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart line %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

func (r *cartRepository) RemoveLine(ctx context.Context, cartID, lineID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, lineID, cartID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart line %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// Replace swaps the whole cart content in one transaction.
func (r *cartRepository) Replace(ctx context.Context, cartID int, lines []domain.CartLine) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	for _, l := range lines {
		query := `
			INSERT INTO cart_items (cart_id, menu_item_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, menu_item_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		`
		if _, err := tx.Exec(ctx, query, cartID, l.MenuItemID, l.Quantity); err != nil {
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}
