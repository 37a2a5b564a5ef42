package service

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeAssetStore struct {
	uploaded []string
	deleted  []string
	failOn   string
	onUpload func()
}

func (f *fakeAssetStore) Upload(_ context.Context, file *multipart.FileHeader, folder string) (models.Image, error) {
	if file.Filename == f.failOn {
		return models.Image{}, ErrInvalidFileType
	}
	if f.onUpload != nil {
		f.onUpload()
	}
	publicID := folder + "/" + file.Filename
	f.uploaded = append(f.uploaded, publicID)
	return models.Image{PublicID: publicID, URL: "https://cdn.test/" + publicID}, nil
}

func (f *fakeAssetStore) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func newTestProductService(t *testing.T) (*ProductService, *gorm.DB, *fakeAssetStore) {
	t.Helper()
	db := openServiceTestDB(t)
	store := &fakeAssetStore{}
	svc := NewProductService(testConfig(), repository.NewProductRepository(db), repository.NewCategoryRepository(db), store)
	return svc, db, store
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func intPtr(v int) *int { return &v }

func TestProductCreateDerivesSlugAndValidates(t *testing.T) {
	svc, db, _ := newTestProductService(t)
	category := seedCategory(t, db, "Skincare")
	ctx := context.Background()

	product, err := svc.Create(ctx, ProductInput{
		Name:        strPtr("  Rose Glow Serum "),
		Description: strPtr("Brightening serum"),
		Price:       decPtr(29.99),
		Stock:       intPtr(10),
		CategoryID:  uintPtr(category.ID),
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.Slug != "rose-glow-serum" || product.Name != "Rose Glow Serum" {
		t.Fatalf("unexpected name/slug %q/%q", product.Name, product.Slug)
	}
	if !product.IsActive {
		t.Fatalf("new products should be active")
	}
	if product.Category == nil || product.Category.ID != category.ID {
		t.Fatalf("category should be loaded")
	}

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Toner"), Price: decPtr(-1), CategoryID: uintPtr(category.ID)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error got %v", err)
	}

	_, err = svc.Create(ctx, ProductInput{
		Name:        strPtr("Toner"),
		Description: strPtr("Hydrating toner"),
		Price:       decPtr(12),
		CategoryID:  uintPtr(9999),
	})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("want ErrCategoryNotFound got %v", err)
	}

	_, err = svc.Create(ctx, ProductInput{
		Name:        strPtr("Rose glow serum"),
		Description: strPtr("Same slug"),
		Price:       decPtr(10),
		CategoryID:  uintPtr(category.ID),
	})
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != "slug" {
		t.Fatalf("want duplicate slug got %v", err)
	}
}

func TestProductUpdateRegeneratesSlugOnlyOnNameChange(t *testing.T) {
	svc, db, _ := newTestProductService(t)
	category := seedCategory(t, db, "Body")
	seeded := seedProduct(t, db, category.ID, "Shea Butter", 15, 4)
	ctx := context.Background()

	if err := db.Model(&models.Product{}).Where("id = ?", seeded.ID).Update("slug", "custom-slug").Error; err != nil {
		t.Fatalf("set custom slug failed: %v", err)
	}
	updated, err := svc.Update(ctx, seeded.ID, ProductInput{Name: strPtr("Shea Butter"), Price: decPtr(18.5)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Slug != "custom-slug" {
		t.Fatalf("slug should be kept when name is unchanged, got %q", updated.Slug)
	}
	if updated.Price.String() != "18.50" {
		t.Fatalf("want price 18.50 got %s", updated.Price.String())
	}

	renamed, err := svc.Update(ctx, seeded.ID, ProductInput{Name: strPtr("Whipped Shea Butter")})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Slug != "whipped-shea-butter" {
		t.Fatalf("want regenerated slug got %q", renamed.Slug)
	}

	if _, err := svc.Update(ctx, 9999, ProductInput{}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestProductListHidesInactive(t *testing.T) {
	svc, db, _ := newTestProductService(t)
	category := seedCategory(t, db, "Hair")
	seedProduct(t, db, category.ID, "Argan Oil", 20, 5)
	hidden := seedProduct(t, db, category.ID, "Old Shampoo", 8, 5)
	if err := db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	page, err := svc.List(context.Background(), ProductQuery{Page: 1, Limit: 12})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Name != "Argan Oil" {
		t.Fatalf("want only the active product got %+v", page)
	}
}

func TestProductAttachImagesAndDelete(t *testing.T) {
	svc, db, store := newTestProductService(t)
	category := seedCategory(t, db, "Makeup")
	product := seedProduct(t, db, category.ID, "Lip Tint", 9, 3)
	ctx := context.Background()

	if _, err := svc.AttachImages(ctx, product.ID, nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("want ErrNoFiles got %v", err)
	}
	tooMany := make([]*multipart.FileHeader, 6)
	for i := range tooMany {
		tooMany[i] = &multipart.FileHeader{Filename: "x.png"}
	}
	if _, err := svc.AttachImages(ctx, product.ID, tooMany); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("want ErrTooManyFiles got %v", err)
	}

	updated, err := svc.AttachImages(ctx, product.ID, []*multipart.FileHeader{{Filename: "a.png"}, {Filename: "b.png"}})
	if err != nil {
		t.Fatalf("attach images failed: %v", err)
	}
	if len(updated.Images) != 3 {
		t.Fatalf("want 3 images got %d", len(updated.Images))
	}

	store.failOn = "bad.exe"
	_, err = svc.AttachImages(ctx, product.ID, []*multipart.FileHeader{{Filename: "c.png"}, {Filename: "bad.exe"}})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("want ErrInvalidFileType got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "products/c.png" {
		t.Fatalf("partial upload should be rolled back, deleted=%v", store.deleted)
	}

	if err := svc.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(store.deleted) != 4 {
		t.Fatalf("want every stored image removed, deleted=%v", store.deleted)
	}
	if _, err := svc.Get(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound after delete got %v", err)
	}
}

func TestAttachImagesKeepsConcurrentStockAndRatingWrites(t *testing.T) {
	svc, db, store := newTestProductService(t)
	category := seedCategory(t, db, "Suncare")
	product := seedProduct(t, db, category.ID, "Mineral SPF 50", 24, 5)
	buyer := seedUser(t, db, "spf@example.com", "")
	productRepo := repository.NewProductRepository(db)
	orders := NewOrderService(testConfig(), repository.NewOrderRepository(db), productRepo, repository.NewCartRepository(db), nil, nil)
	ctx := context.Background()

	// 上传过程中发生一笔下单与一次评分重算
	store.onUpload = func() {
		store.onUpload = nil
		if _, err := orders.CreateOrder(CreateOrderInput{
			UserID:          buyer.ID,
			Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 3}},
			ShippingAddress: testShippingAddress(),
			PaymentMethod:   "cod",
		}); err != nil {
			t.Fatalf("checkout during upload failed: %v", err)
		}
		if err := productRepo.UpdateRating(product.ID, models.RatingSummary{Average: 4, Count: 1}); err != nil {
			t.Fatalf("rating update during upload failed: %v", err)
		}
	}

	updated, err := svc.AttachImages(ctx, product.ID, []*multipart.FileHeader{{Filename: "front.png"}})
	if err != nil {
		t.Fatalf("attach images failed: %v", err)
	}
	if updated.Stock != 2 {
		t.Fatalf("stock want 2 after 3 of 5 sold during upload, got %d", updated.Stock)
	}
	if updated.Rating.Count != 1 || updated.Rating.Average != 4 {
		t.Fatalf("rating recomputed during upload was overwritten: %+v", updated.Rating)
	}
	if updated.Images[len(updated.Images)-1].PublicID != "products/front.png" {
		t.Fatalf("uploaded image not appended: %+v", updated.Images)
	}
}

func TestProductUpdateWritesOnlyProvidedFields(t *testing.T) {
	svc, db, _ := newTestProductService(t)
	category := seedCategory(t, db, "Lipcare")
	product := seedProduct(t, db, category.ID, "Lip Balm", 6, 10)
	ctx := context.Background()

	stale, err := svc.Get(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	productRepo := repository.NewProductRepository(db)
	if rows, err := productRepo.DecrementStock(product.ID, 4); err != nil || rows != 1 {
		t.Fatalf("decrement failed rows=%d err=%v", rows, err)
	}

	updated, err := svc.Update(ctx, stale.ID, ProductInput{Brand: strPtr("Lumi"), Price: decPtr(7.5)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Stock != 6 {
		t.Fatalf("update without stock must keep the sold-down stock 6, got %d", updated.Stock)
	}
	if updated.Brand != "Lumi" || updated.Price.String() != "7.50" {
		t.Fatalf("unexpected fields brand=%q price=%s", updated.Brand, updated.Price.String())
	}

	restocked, err := svc.Update(ctx, stale.ID, ProductInput{Stock: intPtr(20)})
	if err != nil || restocked.Stock != 20 {
		t.Fatalf("explicit stock should be written, got %+v err=%v", restocked, err)
	}
}
