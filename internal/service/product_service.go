package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/lumipure-api/internal/cache"
	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"

	"github.com/shopspring/decimal"
)

const productImageFolder = "products"

// ProductService 商品业务服务
type ProductService struct {
	cfg          config.CatalogConfig
	uploadCfg    config.UploadConfig
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	assets       AssetStore
}

// NewProductService 创建商品服务
func NewProductService(cfg *config.Config, repo repository.ProductRepository, categoryRepo repository.CategoryRepository, assets AssetStore) *ProductService {
	return &ProductService{
		cfg:          cfg.Catalog,
		uploadCfg:    cfg.Upload,
		repo:         repo,
		categoryRepo: categoryRepo,
		assets:       assets,
	}
}

// ProductQuery 公开商品列表查询
type ProductQuery struct {
	Page       int
	Limit      int
	CategoryID uint
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

// ProductPage 商品分页结果
type ProductPage struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
}

// ProductInput 创建/更新商品输入，更新时 nil 字段保持不变
type ProductInput struct {
	Name             *string
	Description      *string
	ShortDescription *string
	Price            *decimal.Decimal
	ComparePrice     *decimal.Decimal
	Images           *models.Images
	CategoryID       *uint
	Stock            *int
	SKU              *string
	Brand            *string
	Variants         *models.Variants
	Ingredients      *string
	HowToUse         *string
	IsFeatured       *bool
	IsActive         *bool
	Tags             *[]string
	SeoTitle         *string
	SeoDescription   *string
}

// List 公开商品列表，仅返回上架商品
func (s *ProductService) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	filter := repository.ProductListFilter{
		Page:       query.Page,
		PageSize:   query.Limit,
		CategoryID: query.CategoryID,
		Search:     strings.TrimSpace(query.Search),
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		Sort:       strings.TrimSpace(query.Sort),
		OnlyActive: true,
	}

	key := productListCacheKey(filter)
	var cached ProductPage
	if hit, err := cache.GetProductList(ctx, key, &cached); err != nil {
		logger.Warnw("product_list_cache_read_failed", "error", err)
	} else if hit {
		return &cached, nil
	}

	items, total, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	page := &ProductPage{Items: items, Total: total}
	ttl := time.Duration(s.cfg.ListCacheSeconds) * time.Second
	if err := cache.SetProductList(ctx, key, page, ttl); err != nil {
		logger.Warnw("product_list_cache_write_failed", "error", err)
	}
	return page, nil
}

// Featured 推荐商品
func (s *ProductService) Featured() ([]models.Product, error) {
	limit := s.cfg.FeaturedLimit
	if limit <= 0 {
		limit = 8
	}
	return s.repo.ListFeatured(limit)
}

// Get 获取商品详情
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	v := &validationCollector{}
	v.check(input.Name != nil, "Product name is required")
	v.check(input.Description != nil, "Product description is required")
	v.check(input.Price != nil, "Product price is required")
	v.check(input.CategoryID != nil, "Product category is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	product := models.Product{IsActive: true}
	if _, err := s.apply(&product, input); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(product.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(&product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(product.ID)
}

// Update 更新商品，名称变化时重新生成 slug
func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	changes, err := s.apply(product, input)
	if err != nil {
		return nil, err
	}
	if _, renamed := changes["slug"]; renamed {
		if err := s.ensureSlugFree(product.Slug, &id); err != nil {
			return nil, err
		}
	}
	rows, err := s.repo.UpdateFields(id, changes)
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 && rows == 0 {
		return nil, ErrProductNotFound
	}
	s.invalidate(ctx)
	return s.Get(id)
}

// Delete 删除商品，并尽力清理已存储的图片
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	product, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	if s.assets != nil {
		for _, img := range product.Images {
			if img.PublicID == "" {
				continue
			}
			if err := s.assets.Delete(ctx, img.PublicID); err != nil {
				logger.Warnw("product_image_delete_failed", "product_id", id, "public_id", img.PublicID, "error", err)
			}
		}
	}
	return nil
}

// AttachImages 上传图片并追加到商品
func (s *ProductService) AttachImages(ctx context.Context, id uint, files []*multipart.FileHeader) (*models.Product, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	maxFiles := s.uploadCfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}
	if len(files) > maxFiles {
		return nil, fmt.Errorf("%w (max %d)", ErrTooManyFiles, maxFiles)
	}
	if s.assets == nil {
		return nil, ErrAssetStoreFailed
	}
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	uploaded := make(models.Images, 0, len(files))
	for _, file := range files {
		img, err := s.assets.Upload(ctx, file, productImageFolder)
		if err != nil {
			s.rollbackUploads(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, img)
	}

	// 上传期间库存与评分可能已被修改，这里只追加 images 列
	rows, err := s.repo.AppendImages(id, uploaded)
	if err == nil && rows == 0 {
		err = ErrProductNotFound
	}
	if err != nil {
		s.rollbackUploads(ctx, uploaded)
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(id)
}

func (s *ProductService) rollbackUploads(ctx context.Context, images models.Images) {
	for _, img := range images {
		if err := s.assets.Delete(ctx, img.PublicID); err != nil {
			logger.Warnw("product_image_rollback_failed", "public_id", img.PublicID, "error", err)
		}
	}
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := cache.InvalidateCatalog(ctx); err != nil {
		logger.Warnw("product_list_cache_invalidate_failed", "error", err)
	}
}

// productChanges 记录本次更新实际写入的列
type productChanges map[string]interface{}

func (c productChanges) set(column string, value interface{}) {
	c[column] = value
}

// apply 校验输入并写入 product，返回需要持久化的列（不含 rating_*）
func (s *ProductService) apply(product *models.Product, input ProductInput) (productChanges, error) {
	changes := productChanges{}
	v := &validationCollector{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		slug := GenerateSlug(name)
		v.check(name != "", "Product name is required")
		v.check(len([]rune(name)) <= 200, "Product name cannot exceed 200 characters")
		v.check(name == "" || slug != "", "Product name must contain letters or digits")
		if name != product.Name {
			product.Name = name
			product.Slug = slug
			changes.set("name", name)
			changes.set("slug", slug)
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		v.check(description != "", "Product description is required")
		v.check(len([]rune(description)) <= 2000, "Description cannot exceed 2000 characters")
		product.Description = description
		changes.set("description", description)
	}
	if input.ShortDescription != nil {
		short := strings.TrimSpace(*input.ShortDescription)
		v.check(len([]rune(short)) <= 500, "Short description cannot exceed 500 characters")
		product.ShortDescription = short
		changes.set("short_description", short)
	}
	if input.Price != nil {
		v.check(!input.Price.IsNegative(), "Price cannot be negative")
		product.Price = models.NewMoneyFromDecimal(*input.Price)
		changes.set("price", product.Price)
	}
	if input.ComparePrice != nil {
		v.check(!input.ComparePrice.IsNegative(), "Compare price cannot be negative")
		product.ComparePrice = models.NewMoneyFromDecimal(*input.ComparePrice)
		changes.set("compare_price", product.ComparePrice)
	}
	if input.Images != nil {
		product.Images = *input.Images
		changes.set("images", product.Images)
	}
	if input.Stock != nil {
		v.check(*input.Stock >= 0, "Stock cannot be negative")
		product.Stock = *input.Stock
		changes.set("stock", product.Stock)
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			product.SKU = nil
			changes.set("sku", nil)
		} else {
			product.SKU = &sku
			changes.set("sku", sku)
		}
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
		changes.set("brand", product.Brand)
	}
	if input.Variants != nil {
		product.Variants = *input.Variants
		changes.set("variants", product.Variants)
	}
	if input.Ingredients != nil {
		product.Ingredients = strings.TrimSpace(*input.Ingredients)
		changes.set("ingredients", product.Ingredients)
	}
	if input.HowToUse != nil {
		product.HowToUse = strings.TrimSpace(*input.HowToUse)
		changes.set("how_to_use", product.HowToUse)
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
		changes.set("is_featured", product.IsFeatured)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
		changes.set("is_active", product.IsActive)
	}
	if input.Tags != nil {
		tags := make(models.StringArray, 0, len(*input.Tags))
		for _, tag := range *input.Tags {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
		product.Tags = tags
		changes.set("tags", tags)
	}
	if input.SeoTitle != nil {
		product.SeoTitle = strings.TrimSpace(*input.SeoTitle)
		changes.set("seo_title", product.SeoTitle)
	}
	if input.SeoDescription != nil {
		product.SeoDescription = strings.TrimSpace(*input.SeoDescription)
		changes.set("seo_description", product.SeoDescription)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = category.ID
		changes.set("category_id", category.ID)
	}
	return changes, nil
}

func (s *ProductService) ensureSlugFree(slug string, excludeID *uint) error {
	count, err := s.repo.CountBySlug(slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateKeyError{Field: "slug"}
	}
	return nil
}

// productListCacheKey 由规范化后的筛选条件生成缓存 key
func productListCacheKey(filter repository.ProductListFilter) string {
	price := func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return d.StringFixed(2)
	}
	raw := fmt.Sprintf("p=%d|l=%d|c=%d|q=%s|min=%s|max=%s|s=%s",
		filter.Page, filter.PageSize, filter.CategoryID, strings.ToLower(filter.Search),
		price(filter.MinPrice), price(filter.MaxPrice), filter.Sort)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
