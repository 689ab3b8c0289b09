// Package cache предоставляет Redis кэш снимков товаров для каталога.
// Кэш best-effort: его недоступность никогда не ломает чтение каталога,
// запрос просто уходит в базу.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/pkg/logger"
)

const (
	// keyProduct — ключ снимка товара: product:{id}.
	keyProduct = "product:%s"

	// DefaultTTL ограничивает отставание остатка в каталоге:
	// движения склада из заказов кэш не инвалидируют.
	DefaultTTL = 30 * time.Second
)

// ProductCache — кэш снимков товаров.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProductCache создаёт кэш товаров. При ttl <= 0 берётся DefaultTTL.
func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProductCache{rdb: rdb, ttl: ttl}
}

// Get возвращает снимок товара из кэша.
// Промах и любая ошибка Redis неразличимы для вызывающего: (nil, false).
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, bool) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyProduct, id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Ctx(ctx).Debug().Err(err).Str("product_id", id).Msg("Кэш товаров недоступен")
		}
		return nil, false
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		// Битая запись — убираем, чтобы не промахиваться вечно
		c.rdb.Del(ctx, fmt.Sprintf(keyProduct, id))
		return nil, false
	}

	return &product, true
}

// Set сохраняет снимок товара с TTL.
func (c *ProductCache) Set(ctx context.Context, product *domain.Product) {
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(keyProduct, product.ID), raw, c.ttl).Err(); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Str("product_id", product.ID).Msg("Не удалось записать товар в кэш")
	}
}

// Invalidate удаляет снимки товаров из кэша.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(keyProduct, id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("Не удалось инвалидировать кэш товаров")
	}
}
