package cache

import (
	"context"
	"fmt"
	"time"
)

// 商品列表缓存按版本号分代，写操作递增版本即可让旧缓存全部失效
const catalogVersionKey = "catalog:version"

func productListKey(version int64, filterKey string) string {
	return fmt.Sprintf("catalog:v%d:products:%s", version, filterKey)
}

// GetProductList 读取商品列表缓存
func GetProductList(ctx context.Context, filterKey string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	version, err := GetInt64(ctx, catalogVersionKey)
	if err != nil {
		return false, err
	}
	return GetJSON(ctx, productListKey(version, filterKey), dest)
}

// SetProductList 写入商品列表缓存
func SetProductList(ctx context.Context, filterKey string, value interface{}, ttl time.Duration) error {
	if !Enabled() || ttl <= 0 {
		return nil
	}
	version, err := GetInt64(ctx, catalogVersionKey)
	if err != nil {
		return err
	}
	return SetJSON(ctx, productListKey(version, filterKey), value, ttl)
}

// InvalidateCatalog 使全部商品列表缓存失效
func InvalidateCatalog(ctx context.Context) error {
	_, err := Incr(ctx, catalogVersionKey)
	return err
}
