package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateWriteErrorPostgres(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	got := translateWriteError(err)
	var dup *DuplicateKeyError
	if !errors.As(got, &dup) {
		t.Fatalf("want duplicate key error got %v", got)
	}
	if dup.Field != "email" {
		t.Fatalf("want field email got %q", dup.Field)
	}
	if dup.Error() != "email already exists" {
		t.Fatalf("unexpected message: %s", dup.Error())
	}
}

func TestTranslateWriteErrorSQLite(t *testing.T) {
	got := translateWriteError(errors.New("constraint failed: UNIQUE constraint failed: categories.slug (2067)"))
	var dup *DuplicateKeyError
	if !errors.As(got, &dup) || dup.Field != "slug" {
		t.Fatalf("want slug duplicate got %v", got)
	}
}

func TestTranslateWriteErrorPassThrough(t *testing.T) {
	if translateWriteError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	plain := errors.New("connection reset")
	if got := translateWriteError(plain); got != plain {
		t.Fatalf("unrelated error should pass through, got %v", got)
	}
	if !IsDuplicateKey(translateWriteError(gorm.ErrDuplicatedKey)) {
		t.Fatalf("gorm duplicated key should be translated")
	}
}
