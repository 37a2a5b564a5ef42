package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation postgres 唯一约束冲突错误码
const pgUniqueViolation = "23505"

var sqliteUniquePattern = regexp.MustCompile(`UNIQUE constraint failed: ([a-zA-Z0-9_.]+)`)

// DuplicateKeyError 唯一键冲突
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

// IsDuplicateKey 判断错误是否为唯一键冲突
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

// translateWriteError 将驱动层唯一约束错误转换为 DuplicateKeyError，其它错误原样返回。
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateKeyError{Field: fieldFromConstraint(pgErr.ConstraintName)}
	}
	if match := sqliteUniquePattern.FindStringSubmatch(err.Error()); len(match) == 2 {
		column := match[1]
		if idx := strings.LastIndex(column, "."); idx >= 0 {
			column = column[idx+1:]
		}
		return &DuplicateKeyError{Field: column}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateKeyError{}
	}
	return err
}

// fieldFromConstraint 从 gorm 默认索引名 idx_<table>_<column> 中解析字段名
func fieldFromConstraint(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, table := range []string{"users", "categories", "products", "cart_items", "orders", "reviews"} {
		prefix := "idx_" + table + "_"
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return strings.TrimPrefix(name, "idx_")
}

// AsDuplicateKey 识别任意形态的唯一键冲突（已转换的、gorm 的或驱动原始错误）
func AsDuplicateKey(err error) (*DuplicateKeyError, bool) {
	if err == nil {
		return nil, false
	}
	var dup *DuplicateKeyError
	if errors.As(translateWriteError(err), &dup) {
		return dup, true
	}
	return nil, false
}
