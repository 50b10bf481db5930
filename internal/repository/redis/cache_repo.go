package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimlawless/whereami"
	"github.com/redis/go-redis/v9"
	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/repository/redis/converter"
	"github.com/stockpilot/go-backend/pkg/e"
)

const productKeyFmt = "product:%d"

// CacheRepo кэширует карточки товаров по схеме cache-aside.
// Промах кэша — не ошибка: GetProduct возвращает nil, nil.
type CacheRepo struct {
	client    *redis.Client
	converter converter.ProductConverter
	cfg       *cfg.RedisCfg
}

func NewCacheRepo(client *redis.Client, converter converter.ProductConverter, cfg *cfg.RedisCfg) *CacheRepo {
	return &CacheRepo{
		client:    client,
		converter: converter,
		cfg:       cfg,
	}
}

func (c *CacheRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf(productKeyFmt, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.converter.ToDomainProduct(&model), nil
}

func (c *CacheRepo) SetProduct(ctx context.Context, product *domain.Product) error {
	raw, err := json.Marshal(c.converter.ToRedisProduct(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf(productKeyFmt, product.ID), raw, c.cfg.ProductTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf(productKeyFmt, id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
