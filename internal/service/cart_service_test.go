package service

import (
	"errors"
	"testing"

	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"

	"gorm.io/gorm"
)

func newTestCartService(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	return NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db)), db
}

func TestAddItemRejectsQuantityOverStock(t *testing.T) {
	svc, db := newTestCartService(t)
	user := seedUser(t, db, "cart-stock@example.com", "")
	category := seedCategory(t, db, "Face")
	product := seedProduct(t, db, category.ID, "Clay Mask", 14, 3)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 4}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: 9999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
	cart, err := svc.Get(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("rejected adds should leave the cart empty, got %d lines", len(cart.Items))
	}
}

func TestAddItemMergesByProduct(t *testing.T) {
	svc, db := newTestCartService(t)
	user := seedUser(t, db, "cart-merge@example.com", "")
	category := seedCategory(t, db, "Bath")
	product := seedProduct(t, db, category.ID, "Bath Salt", 6.5, 10)
	variant := models.StringMap{"Scent": "Lavender"}

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2, SelectedVariant: variant}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 3, SelectedVariant: models.StringMap{"Scent": "Lavender"}})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("want one line with quantity 5 got %+v", cart.Items)
	}
	if cart.TotalItems != 5 || cart.TotalPrice.String() != "32.50" {
		t.Fatalf("want totals 5 / 32.50 got %d / %s", cart.TotalItems, cart.TotalPrice.String())
	}
	if cart.Items[0].Product == nil || cart.Items[0].Product.Name != "Bath Salt" {
		t.Fatalf("line should carry the product summary")
	}

	// 默认数量为 1，且不带规格时沿用已有规格
	cart, err = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("default quantity add failed: %v", err)
	}
	if cart.Items[0].Quantity != 6 || cart.Items[0].SelectedVariant["Scent"] != "Lavender" {
		t.Fatalf("unexpected line after default add %+v", cart.Items[0])
	}

	_, err = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1, SelectedVariant: models.StringMap{"Scent": "Rose"}})
	if !errors.Is(err, ErrCartVariantConflict) {
		t.Fatalf("want ErrCartVariantConflict got %v", err)
	}
}

func TestUpdateRemoveAndClearCart(t *testing.T) {
	svc, db := newTestCartService(t)
	user := seedUser(t, db, "cart-update@example.com", "")
	category := seedCategory(t, db, "Nails")
	polish := seedProduct(t, db, category.ID, "Nail Polish", 5, 2)
	remover := seedProduct(t, db, category.ID, "Polish Remover", 4, 2)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: polish.ID, Quantity: 1}); err != nil {
		t.Fatalf("add polish failed: %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: remover.ID, Quantity: 1}); err != nil {
		t.Fatalf("add remover failed: %v", err)
	}

	// 修改数量不重新校验库存
	cart, err := svc.UpdateItem(user.ID, polish.ID, 7)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cart.Items[0].ProductID != polish.ID || cart.Items[0].Quantity != 7 {
		t.Fatalf("unexpected first line %+v", cart.Items[0])
	}
	if _, err := svc.UpdateItem(user.ID, polish.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity got %v", err)
	}
	if _, err := svc.UpdateItem(user.ID, 9999, 1); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("want ErrCartItemNotFound got %v", err)
	}

	cart, err = svc.RemoveItem(user.ID, polish.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("want 1 line after remove got %d", len(cart.Items))
	}
	if _, err := svc.RemoveItem(user.ID, polish.ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("want ErrCartItemNotFound got %v", err)
	}

	cart, err = svc.Clear(user.ID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be empty after clear")
	}
}
