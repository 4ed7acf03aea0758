package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// Prices are read as text so they parse into decimal.Decimal without a
// custom pgx type.
const menuColumns = `m.id, m.name, m.description, m.price::text, m.category, m.diet, m.avg_prep_minutes, m.is_available`

type menuRepository struct {
	db DB
}

func NewMenuRepository(db DB) interfaces.MenuRepository {
	return &menuRepository{db: db}
}

func scanMenuItem(row Row, extra ...any) (*domain.MenuItem, error) {
	var (
		item  domain.MenuItem
		price string
	)
	dest := append([]any{
		&item.ID, &item.Name, &item.Description, &price, &item.Category,
		&item.Diet, &item.AvgPrepMinutes, &item.IsAvailable,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for menu item %d: %w", price, item.ID, err)
	}
	item.Price = p
	return &item, nil
}

func (r *menuRepository) collect(ctx context.Context, query string, args ...any) ([]*domain.MenuItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *menuRepository) List(ctx context.Context) ([]*domain.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items m ORDER BY m.category, m.name, m.id`
	return r.collect(ctx, query)
}

func (r *menuRepository) Search(ctx context.Context, q string) ([]*domain.MenuItem, error) {
	query := `
		SELECT ` + menuColumns + `
		FROM menu_items m
		WHERE m.name ILIKE $1 OR m.description ILIKE $1 OR m.category ILIKE $1 OR m.diet ILIKE $1
		ORDER BY m.category, m.name, m.id
	`
	return r.collect(ctx, query, "%"+escapeLike(q)+"%")
}

func (r *menuRepository) FindByID(ctx context.Context, id int) (*domain.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items m WHERE m.id = $1`
	item, err := scanMenuItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "menu item", id)
	}
	return item, nil
}

func (r *menuRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM menu_items WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Bestsellers ranks items by quantity ordered since the given time.
func (r *menuRepository) Bestsellers(ctx context.Context, since time.Time, limit int) ([]*domain.MenuItem, error) {
	query := `
		SELECT ` + menuColumns + `, SUM(ol.quantity) AS sold
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		JOIN menu_items m ON m.id = ol.menu_item_id
		WHERE o.created_at >= $1
		GROUP BY m.id
		ORDER BY sold DESC, m.id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bestsellers: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		var sold int64
		item, err := scanMenuItem(rows, &sold)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bestseller: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
