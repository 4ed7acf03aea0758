package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const timeLayout = "2006-01-02 15:04"

// Dashboard prints the staff view of active and past orders.
type Dashboard struct {
	orders interfaces.OrderService
	out    io.Writer
}

func NewDashboard(orders interfaces.OrderService, out io.Writer) *Dashboard {
	return &Dashboard{orders: orders, out: out}
}

// Print renders both listings. A nil mode shows every mode.
func (d *Dashboard) Print(ctx context.Context, mode *domain.Mode) error {
	active, err := d.orders.ActiveOrders(ctx, mode)
	if err != nil {
		return fmt.Errorf("failed to list active orders: %w", err)
	}
	past, err := d.orders.PastOrders(ctx, mode)
	if err != nil {
		return fmt.Errorf("failed to list past orders: %w", err)
	}

	if err := RenderOrders(d.out, "Active orders", active); err != nil {
		return err
	}
	fmt.Fprintln(d.out)
	return RenderOrders(d.out, "Past orders", past)
}

func RenderOrders(w io.Writer, title string, orders []*domain.Order) error {
	fmt.Fprintf(w, "%s (%d)\n", title, len(orders))

	table := tablewriter.NewWriter(w)
	table.Header("ID", "User", "Mode", "Status", "Next", "Items", "Total", "Scheduled", "Address")
	for _, o := range orders {
		if err := table.Append(orderRow(o)); err != nil {
			return fmt.Errorf("failed to add order %d: %w", o.ID, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func orderRow(o *domain.Order) []string {
	next := "-"
	if !o.IsTerminal() {
		next = string(o.NextStatus())
	}
	address := "-"
	if o.Address != nil {
		address = *o.Address
	}
	return []string{
		strconv.Itoa(o.ID),
		strconv.Itoa(o.UserID),
		string(o.Mode),
		string(o.Status),
		next,
		summarize(o.Lines),
		o.Total().StringFixed(2),
		o.ScheduledAt.Local().Format(timeLayout),
		address,
	}
}

func summarize(lines []domain.OrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		name := "#" + strconv.Itoa(l.MenuItemID)
		if l.Item != nil {
			name = l.Item.Name
		}
		parts = append(parts, fmt.Sprintf("%dx %s", l.Quantity, name))
	}
	return strings.Join(parts, ", ")
}
