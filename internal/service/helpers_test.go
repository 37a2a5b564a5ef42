package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-with-enough-length"
	cfg.JWT.ExpireHours = 1
	cfg.Security.PasswordPolicy.MinLength = 6
	cfg.Order.NumberPrefix = "LP"
	cfg.Order.MyOrdersLimit = 10
	cfg.Order.AdminListLimit = 20
	cfg.Catalog.FeaturedLimit = 8
	cfg.Upload.MaxFiles = 5
	return cfg
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if role == "" {
		role = constants.RoleCustomer
	}
	user := &models.User{Name: "Tester", Email: email, PasswordHash: string(hash), Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: GenerateSlug(name), IsActive: true}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Slug:        GenerateSlug(name),
		Description: name + " description",
		Price:       models.NewMoneyFromFloat(price),
		CategoryID:  categoryID,
		Stock:       stock,
		Images:      models.Images{{PublicID: "p/" + GenerateSlug(name), URL: "https://cdn.example.com/" + GenerateSlug(name) + ".jpg"}},
		IsActive:    true,
	}
	if err := db.Omit("Category").Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return &product
}
