package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

// ProductUseCase реализует бизнес-логику управления каталогом товаров.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// CreateProduct сохраняет новый товар и событие каталога в одной транзакции.
// Уникальность SKU обеспечивает репозиторий (e.ErrDuplicateSKU).
func (p *ProductUseCase) CreateProduct(ctx context.Context, draft *domain.ProductDraft) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateDraft(draft); err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	err := p.inTransaction(ctx, func(txCtx context.Context) error {
		var err error
		product, err = p.productRepo.Create(txCtx, draft)
		if err != nil {
			return err
		}

		return p.createOutboxEvent(txCtx, ProductCreated, product)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, product.ID, op)
	return product, nil
}

// UpdateProduct обновляет существующий товар и пишет событие каталога.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := p.validateDraft(draft); err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	err := p.inTransaction(ctx, func(txCtx context.Context) error {
		var err error
		product, err = p.productRepo.Update(txCtx, id, draft)
		if err != nil {
			return err
		}

		return p.createOutboxEvent(txCtx, ProductUpdated, product)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id, op)
	return product, nil
}

// DeleteProduct удаляет товар и пишет событие каталога.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = p.inTransaction(ctx, func(txCtx context.Context) error {
		if err := p.productRepo.Delete(txCtx, id); err != nil {
			return err
		}

		return p.createOutboxEvent(txCtx, ProductDeleted, product)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id, op)
	return nil
}

// GetProduct возвращает товар, сперва заглядывая в кэш.
// Промах дозаполняется фоновым кэшированием.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	if cached, err := p.cacheRepo.GetProduct(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, product); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return product, nil
}

// ListProducts возвращает выборку каталога по фильтрам.
func (p *ProductUseCase) ListProducts(ctx context.Context, filter *ProductFilter) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// inTransaction выполняет fn внутри транзакции БД.
func (p *ProductUseCase) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err := fn(ctx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// createOutboxEvent пишет событие каталога в outbox той же транзакцией.
func (p *ProductUseCase) createOutboxEvent(ctx context.Context, eventType OutboxEventType, product *domain.Product) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(ProductChangeEvent{
		EventID:    eventID,
		EventType:  string(eventType),
		ProductID:  product.ID,
		SKU:        product.SKU,
		OccurredAt: time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventID, eventType, product.ID, payload))
	return err
}

// invalidateCache удаляет устаревшую запись товара из кэша, ошибки не фатальны.
func (p *ProductUseCase) invalidateCache(ctx context.Context, id int64, op string) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, err))
	}
}

// validateDraft перепроверяет инварианты нормализованного черновика.
// Полная пошаговая валидация выполняется выше: мастером либо delivery.
func (p *ProductUseCase) validateDraft(draft *domain.ProductDraft) error {
	switch {
	case strings.TrimSpace(draft.Name) == "",
		strings.TrimSpace(draft.Category) == "",
		strings.TrimSpace(draft.SKU) == "":
		return e.ErrValidationFailed
	case draft.Price < 0 || draft.StockQuantity < 0 || draft.LowStockThreshold < 0:
		return e.ErrValidationFailed
	case len(draft.Images) == 0:
		return e.ErrNoImages
	}

	return nil
}
