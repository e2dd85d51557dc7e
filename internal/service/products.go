package service

import (
	"context"
	"strings"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/xid"
)

// ListProducts returns the caller's catalogue sorted by name, optionally
// narrowed to names containing query.
func (s *Service) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, actor.Store)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products, nil
	}
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if containsFold(p.Name, query) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.GetProduct(ctx, actor.Store, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if err := validateProduct(&req); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:        xid.New(xid.ProductPrefix),
		Store:     actor.Store,
		Name:      req.Name,
		Cost:      req.Cost,
		Price:     req.Price,
		Qty:       req.Qty,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if err := validateProduct(&req); err != nil {
		return domain.Product{}, err
	}
	existing, err := s.repo.GetProduct(ctx, actor.Store, id)
	if err != nil {
		return domain.Product{}, err
	}

	existing.Name = req.Name
	existing.Cost = req.Cost
	existing.Price = req.Price
	existing.Qty = req.Qty
	updated, err := s.repo.UpdateProduct(ctx, *existing)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, err := actorStore(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, actor.Store, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return nil
}

func validateProduct(req *domain.ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return invalid("product name is required")
	}
	if req.Cost.Float() < 0 || req.Price.Float() < 0 || req.Qty < 0 {
		return invalid("cost, price and qty must not be negative")
	}
	req.Cost = domain.Number(req.Cost.Float())
	req.Price = domain.Number(req.Price.Float())
	return nil
}
