package menu

import (
	"context"
	"strings"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const (
	bestsellerWindow = 7 * 24 * time.Hour
	bestsellerLimit  = 5
)

type Service struct {
	repo   interfaces.MenuRepository
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo interfaces.MenuRepository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*domain.MenuItem, error) {
	return s.repo.List(ctx)
}

// Search with a blank query returns the whole menu.
func (s *Service) Search(ctx context.Context, query string) ([]*domain.MenuItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Bestsellers returns the most ordered items of the last week.
func (s *Service) Bestsellers(ctx context.Context) ([]*domain.MenuItem, error) {
	since := s.now().Add(-bestsellerWindow)
	items, err := s.repo.Bestsellers(ctx, since, bestsellerLimit)
	if err != nil {
		s.logger.Error("bestsellers_failed", "Failed to compute bestsellers", "", nil, err)
		return nil, err
	}
	return items, nil
}
