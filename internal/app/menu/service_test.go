package menu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
)

type fakeMenu struct {
	items      []*domain.MenuItem
	searched   string
	since      time.Time
	limit      int
	categories []string
}

func (f *fakeMenu) List(context.Context) ([]*domain.MenuItem, error) { return f.items, nil }

func (f *fakeMenu) Search(_ context.Context, q string) ([]*domain.MenuItem, error) {
	f.searched = q
	return f.items[:1], nil
}

func (f *fakeMenu) FindByID(_ context.Context, id int) (*domain.MenuItem, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMenu) Categories(context.Context) ([]string, error) { return f.categories, nil }

func (f *fakeMenu) Bestsellers(_ context.Context, since time.Time, limit int) ([]*domain.MenuItem, error) {
	f.since = since
	f.limit = limit
	return f.items, nil
}

func newFakeMenu() *fakeMenu {
	return &fakeMenu{
		items: []*domain.MenuItem{
			{ID: 1, Name: "Paneer Roll", Category: "Rolls", Diet: "veg"},
			{ID: 2, Name: "Egg Maggi", Category: "Noodles", Diet: "egg"},
		},
		categories: []string{"Noodles", "Rolls"},
	}
}

func TestSearch(t *testing.T) {
	repo := newFakeMenu()
	svc := NewService(repo, logger.Nop())

	items, err := svc.Search(context.Background(), "  paneer ")
	require.NoError(t, err)
	assert.Equal(t, "paneer", repo.searched)
	assert.Len(t, items, 1)

	items, err = svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, items, 2, "blank query lists the whole menu")
}

func TestBestsellersUsesLastWeek(t *testing.T) {
	repo := newFakeMenu()
	svc := NewService(repo, logger.Nop())
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Bestsellers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -7), repo.since)
	assert.Equal(t, 5, repo.limit)
}

func TestCategories(t *testing.T) {
	svc := NewService(newFakeMenu(), logger.Nop())

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Noodles", "Rolls"}, cats)
}
