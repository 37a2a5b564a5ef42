package shared

import (
	"strconv"
	"strings"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetUserID 读取鉴权中间件写入的用户 ID，缺失时返回 401。
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		RespondError(c, service.ErrUnauthorized)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		RespondError(c, service.ErrUnauthorized)
		return 0, false
	}
	return id, true
}

// GetUserRole 读取当前用户角色
func GetUserRole(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserRole)
}

// ParseID 解析路径中的数字标识，非法时返回 400。
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := ParseUint(c.Param(name))
	if err != nil {
		RespondError(c, ErrInvalidID)
		return 0, false
	}
	return id, true
}

// ParseUint 解析正整数标识
func ParseUint(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidID
	}
	return uint(value), nil
}
