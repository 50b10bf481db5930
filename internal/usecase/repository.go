package usecase

import (
	"context"

	"github.com/stockpilot/go-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, draft *domain.ProductDraft) (*domain.Product, error)
	Update(ctx context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter *ProductFilter) ([]domain.Product, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, url string) error
}

type CacheRepository interface {
	// GetProduct возвращает nil без ошибки при промахе кэша.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	DeleteProducts(ctx context.Context, ids []int64) error
}
