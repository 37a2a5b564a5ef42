//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/lumipure-api/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	category := createTestCategory(t, db, "Skincare")
	repo := NewProductRepository(db)
	createTestProduct(t, repo, category.ID, "Glow Serum", "Lumi", 30, 5)

	rows, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 12, Search: "gLoW", OnlyActive: true})
	if err != nil {
		t.Fatalf("product list search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresUniqueViolationIsTranslated(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewUserRepository(db)
	if err := repo.Create(&models.User{Name: "A", Email: "dup@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	err := repo.Create(&models.User{Name: "B", Email: "dup@example.com", PasswordHash: "x"})
	dup, ok := err.(*DuplicateKeyError)
	if !ok {
		t.Fatalf("want duplicate key error got %v", err)
	}
	if dup.Field != "email" {
		t.Fatalf("want field email got %q", dup.Field)
	}
}

func TestPostgresReviewAggregate(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	category := createTestCategory(t, db, "Skincare")
	product := createTestProduct(t, NewProductRepository(db), category.ID, "Glow Serum", "Lumi", 30, 5)
	reviews := NewReviewRepository(db)
	for i, rating := range []int{5, 4} {
		user := createTestUser(t, db, strings.Repeat("u", i+1)+"@example.com")
		if err := reviews.Create(&models.Review{ProductID: product.ID, UserID: user.ID, Rating: rating, Comment: "ok"}); err != nil {
			t.Fatalf("create review failed: %v", err)
		}
	}
	summary, err := reviews.AggregateByProduct(product.ID)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if summary.Count != 2 || summary.Average != 4.5 {
		t.Fatalf("want 4.5/2 got %+v", summary)
	}
}
