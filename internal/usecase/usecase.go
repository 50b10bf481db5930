package usecase

import (
	"context"

	"github.com/stockpilot/go-backend/internal/domain"
)

type ProductUC interface {
	CreateProduct(ctx context.Context, draft *domain.ProductDraft) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter *ProductFilter) ([]domain.Product, error)
}

type StatsUC interface {
	GetDashboard(ctx context.Context) (*DashboardStats, error)
}
