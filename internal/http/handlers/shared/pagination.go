package shared

import (
	"strconv"
	"strings"

	"github.com/lumipure-api/internal/constants"

	"github.com/gin-gonic/gin"
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, limit, defaultLimit int) (int, int) {
	if defaultLimit <= 0 {
		defaultLimit = constants.DefaultLimit
	}
	if page < 1 {
		page = constants.DefaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > constants.MaxLimit {
		limit = constants.MaxLimit
	}
	return page, limit
}

// ParsePagination 读取 page/limit 查询参数，非法值按默认处理。
func ParsePagination(c *gin.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	return NormalizePagination(page, limit, defaultLimit)
}
