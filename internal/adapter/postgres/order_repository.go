package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const orderColumns = `id, user_id, mode, status, address, created_at, scheduled_at, updated_at, completed_at`

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order        domain.Order
		mode, status string
	)
	err := row.Scan(
		&order.ID, &order.UserID, &mode, &status, &order.Address,
		&order.CreatedAt, &order.ScheduledAt, &order.UpdatedAt, &order.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Mode = domain.Mode(mode)
	order.Status = domain.Status(status)
	return &order, nil
}

// loadLines attaches lines, with their live menu items, to every order.
func loadLines(ctx context.Context, q querier, orders ...*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int]*domain.Order, len(orders))
	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT ol.id, ol.order_id, ol.menu_item_id, ol.quantity, ` + menuColumns + `
		FROM order_lines ol
		JOIN menu_items m ON m.id = ol.menu_item_id
		WHERE ol.order_id = ANY($1)
		ORDER BY ol.order_id, ol.id
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		item, err := scanMenuItem(lineRow{rows: rows, line: &line})
		if err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		line.Item = item
		if o, ok := byID[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

// lineRow prepends the line columns to a menu item scan.
type lineRow struct {
	rows Rows
	line *domain.OrderLine
}

func (r lineRow) Scan(dest ...any) error {
	all := append([]any{&r.line.ID, &r.line.OrderID, &r.line.MenuItemID, &r.line.Quantity}, dest...)
	return r.rows.Scan(all...)
}

// CreateFromCart reads the cart only after locking it, so a concurrent
// checkout of the same cart sees it empty once the first one commits.
func (r *orderRepository) CreateFromCart(ctx context.Context, cartID int, changedBy string, build func([]domain.CartLine) (*domain.Order, error)) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int
	if err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&locked); err != nil {
		return nil, notFound(err, "cart", cartID)
	}

	lines, err := loadCartLines(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO orders (user_id, mode, status, address, created_at, scheduled_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.UserID, string(order.Mode), string(order.Status), order.Address,
		order.CreatedAt, order.ScheduledAt, order.UpdatedAt, order.CompletedAt,
	).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		lineQuery := `
			INSERT INTO order_lines (order_id, menu_item_id, quantity)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		err = tx.QueryRow(ctx, lineQuery, order.ID, order.Lines[i].MenuItemID, order.Lines[i].Quantity).
			Scan(&order.Lines[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}
		order.Lines[i].OrderID = order.ID
	}

	if err := insertStatusLog(ctx, tx, order, changedBy); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	if err := loadLines(ctx, r.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if filter.Mode != nil {
		where = append(where, "mode = "+arg(string(*filter.Mode)))
	}
	if filter.UserID != nil {
		where = append(where, "user_id = "+arg(*filter.UserID))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	rows.Close()

	if err := loadLines(ctx, r.db, orders...); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus serializes writers of the same order with a row lock held
// until commit.
func (r *orderRepository) UpdateStatus(ctx context.Context, id int, changedBy string, mutate func(*domain.Order) error) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	if err := loadLines(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := mutate(order); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, completed_at = $3
		WHERE id = $4
	`
	if _, err := tx.Exec(ctx, query, string(order.Status), order.UpdatedAt, order.CompletedAt, order.ID); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := insertStatusLog(ctx, tx, order, changedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return order, nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var (
			log    domain.StatusLog
			status string
		)
		if err := rows.Scan(&log.ID, &log.OrderID, &status, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		log.Status = domain.Status(status)
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

func insertStatusLog(ctx context.Context, tx Tx, order *domain.Order, changedBy string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, order.ID, string(order.Status), changedBy, order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
