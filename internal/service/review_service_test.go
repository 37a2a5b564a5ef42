package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"

	"gorm.io/gorm"
)

func newTestReviewService(t *testing.T) (*ReviewService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	svc := NewReviewService(repository.NewReviewRepository(db), repository.NewProductRepository(db), repository.NewOrderRepository(db))
	return svc, db
}

func TestCreateReviewRecomputesRating(t *testing.T) {
	svc, db := newTestReviewService(t)
	category := seedCategory(t, db, "Lips")
	product := seedProduct(t, db, category.ID, "Lip Balm", 4, 20)
	ctx := context.Background()

	for i, rating := range []int{5, 4, 4} {
		user := seedUser(t, db, "reviewer"+string(rune('a'+i))+"@example.com", "")
		view, err := svc.Create(ctx, CreateReviewInput{ProductID: product.ID, UserID: user.ID, Rating: rating, Comment: "Nice"})
		if err != nil {
			t.Fatalf("create review %d failed: %v", i, err)
		}
		if view.Author == nil || view.Author.Name != "Tester" {
			t.Fatalf("review should carry its author")
		}
	}

	reloaded := reloadProduct(t, db, product.ID)
	if reloaded.Rating.Count != 3 || reloaded.Rating.Average != 4.3 {
		t.Fatalf("want rating 4.3/3 got %v/%d", reloaded.Rating.Average, reloaded.Rating.Count)
	}
}

func TestCreateReviewRejectsSecondReview(t *testing.T) {
	svc, db := newTestReviewService(t)
	category := seedCategory(t, db, "Eyes")
	product := seedProduct(t, db, category.ID, "Mascara", 11, 20)
	user := seedUser(t, db, "once@example.com", "")
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateReviewInput{ProductID: product.ID, UserID: user.ID, Rating: 3, Comment: "Ok"}); err != nil {
		t.Fatalf("first review failed: %v", err)
	}
	_, err := svc.Create(ctx, CreateReviewInput{ProductID: product.ID, UserID: user.ID, Rating: 5, Comment: "Changed my mind"})
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Error() != "review already exists" {
		t.Fatalf("want duplicate review error got %v", err)
	}
	if got := reloadProduct(t, db, product.ID).Rating; got.Count != 1 || got.Average != 3 {
		t.Fatalf("rejected review must not change the rating, got %+v", got)
	}

	if _, err := svc.Create(ctx, CreateReviewInput{ProductID: product.ID, UserID: user.ID, Rating: 6, Comment: "x"}); err == nil {
		t.Fatalf("rating above 5 should be rejected")
	}
	if _, err := svc.Create(ctx, CreateReviewInput{ProductID: 9999, UserID: user.ID, Rating: 4, Comment: "x"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestCreateReviewMarksVerifiedPurchase(t *testing.T) {
	svc, db := newTestReviewService(t)
	category := seedCategory(t, db, "Sun")
	product := seedProduct(t, db, category.ID, "Sunscreen", 16, 20)
	buyer := seedUser(t, db, "buyer-review@example.com", "")

	order := &models.Order{
		OrderNumber:     "LP26109999",
		UserID:          buyer.ID,
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "card",
		PaymentStatus:   constants.PaymentStatusCompleted,
		OrderStatus:     constants.OrderStatusDelivered,
	}
	if err := repository.NewOrderRepository(db).Create(order, []models.OrderItem{{ProductID: product.ID, Name: "Sunscreen", Quantity: 1, Price: product.Price}}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	view, err := svc.Create(context.Background(), CreateReviewInput{ProductID: product.ID, UserID: buyer.ID, Rating: 5, Comment: "Great"})
	if err != nil {
		t.Fatalf("create review failed: %v", err)
	}
	if !view.IsVerifiedPurchase {
		t.Fatalf("review from a delivered purchase should be verified")
	}
}

func TestDeleteReviewResetsRating(t *testing.T) {
	svc, db := newTestReviewService(t)
	category := seedCategory(t, db, "Hands")
	product := seedProduct(t, db, category.ID, "Hand Cream", 7, 20)
	author := seedUser(t, db, "author@example.com", "")
	other := seedUser(t, db, "other@example.com", "")
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateReviewInput{ProductID: product.ID, UserID: author.ID, Rating: 2, Comment: "Greasy"})
	if err != nil {
		t.Fatalf("create review failed: %v", err)
	}
	if err := svc.Delete(ctx, view.ID, other.ID, constants.RoleCustomer); !errors.Is(err, ErrReviewAccessDenied) {
		t.Fatalf("want ErrReviewAccessDenied got %v", err)
	}
	if err := svc.Delete(ctx, view.ID, author.ID, constants.RoleCustomer); err != nil {
		t.Fatalf("delete review failed: %v", err)
	}
	if got := reloadProduct(t, db, product.ID).Rating; got.Count != 0 || got.Average != 0 {
		t.Fatalf("want rating reset to 0/0 got %+v", got)
	}
	if err := svc.Delete(ctx, view.ID, author.ID, constants.RoleCustomer); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("want ErrReviewNotFound got %v", err)
	}

	list, total, err := svc.ListByProduct(product.ID, 1, 10)
	if err != nil || total != 0 || len(list) != 0 {
		t.Fatalf("want empty review list got %d (%v)", total, err)
	}
}
