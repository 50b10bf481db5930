package pgdb

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/repository/pgdb/converter"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/tr"
)

const productColumns = `
	id, name, description, category, sku, tags,
	price, compare_at_price, cost, stock_quantity, low_stock_threshold,
	images, is_active, sales, created_at, updated_at
`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create вставляет новый товар. Дубликат SKU — e.ErrDuplicateSKU.
// Выполняется внутри транзакции из контекста.
func (p *ProductRepo) Create(ctx context.Context, draft *domain.ProductDraft) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (
			name, description, category, sku, tags,
			price, compare_at_price, cost, stock_quantity, low_stock_threshold,
			images, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + productColumns

	row := tx.QueryRow(ctx, query,
		draft.Name, draft.Description, draft.Category, draft.SKU, draft.Tags,
		draft.Price, draft.CompareAtPrice, draft.Cost, draft.StockQuantity, draft.LowStockThreshold,
		draft.Images, draft.IsActive,
	)

	model, err := scanProduct(row)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, e.ErrDuplicateSKU
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Update перезаписывает товар по ID. Отсутствующий ID — e.ErrProductNotFound,
// занятый другим товаром SKU — e.ErrDuplicateSKU.
func (p *ProductRepo) Update(ctx context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, sku = $5, tags = $6,
			price = $7, compare_at_price = $8, cost = $9,
			stock_quantity = $10, low_stock_threshold = $11,
			images = $12, is_active = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tx.QueryRow(ctx, query,
		id,
		draft.Name, draft.Description, draft.Category, draft.SKU, draft.Tags,
		draft.Price, draft.CompareAtPrice, draft.Cost, draft.StockQuantity, draft.LowStockThreshold,
		draft.Images, draft.IsActive,
	)

	model, err := scanProduct(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, e.ErrProductNotFound
		case isDuplicateKey(err):
			return nil, e.ErrDuplicateSKU
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Delete удаляет товар по ID. Выполняется внутри транзакции из контекста.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// GetByID возвращает товар по ID.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	model, err := scanProduct(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// List возвращает выборку каталога по необязательным фильтрам,
// свежие записи первыми.
func (p *ProductRepo) List(ctx context.Context, filter *usecase.ProductFilter) ([]domain.Product, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Category != "" {
			conditions = append(conditions, "category = "+addArg(filter.Category))
		}
		if filter.Search != "" {
			ph := addArg("%" + filter.Search + "%")
			conditions = append(conditions,
				"(name ILIKE "+ph+" OR description ILIKE "+ph+" OR sku ILIKE "+ph+")")
		}
		if filter.IsActive != nil {
			conditions = append(conditions, "is_active = "+addArg(*filter.IsActive))
		}
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, *model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Description, &model.Category, &model.SKU, &model.Tags,
		&model.Price, &model.CompareAtPrice, &model.Cost, &model.StockQuantity, &model.LowStockThreshold,
		&model.Images, &model.IsActive, &model.Sales, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// isDuplicateKey распознаёт нарушение уникального ограничения (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
