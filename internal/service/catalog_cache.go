package service

import (
	"context"

	"github.com/lumipure-api/internal/cache"
	"github.com/lumipure-api/internal/logger"
)

// catalogInvalidator 使商品列表缓存失效，默认走 cache.InvalidateCatalog
type catalogInvalidator func(ctx context.Context) error

// run 写入已提交，失效失败只记录日志
func (fn catalogInvalidator) run(ctx context.Context, event string) {
	if fn == nil {
		return
	}
	if err := fn(ctx); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "event", event, "error", err)
	}
}

func defaultCatalogInvalidator() catalogInvalidator {
	return cache.InvalidateCatalog
}
