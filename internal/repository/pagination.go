package repository

import (
	"strings"

	"gorm.io/gorm"
)

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}

// resolveSort 将 "-field" 形式的排序参数映射为白名单内的 ORDER BY 子句，非法值回退默认排序。
func resolveSort(sort string, allowed map[string]string, fallback string) string {
	sort = strings.TrimSpace(sort)
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	column, ok := allowed[key]
	if !ok || key == "" {
		return fallback
	}
	if desc {
		return column + " DESC, id DESC"
	}
	return column + " ASC, id ASC"
}
