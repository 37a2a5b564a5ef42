package repository

import (
	"errors"
	"strings"

	"github.com/lumipure-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	ListFeatured(limit int) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	UpdateFields(id uint, fields map[string]interface{}) (int64, error)
	AppendImages(id uint, images models.Images) (int64, error)
	Delete(id uint) error
	CountBySlug(slug string, excludeID *uint) (int64, error)
	DecrementStock(productID uint, quantity int) (int64, error)
	UpdateRating(productID uint, summary models.RatingSummary) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating_average",
	"stock":     "stock",
}

const productDefaultOrder = "created_at DESC, id DESC"

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product
	query := r.db.Model(&models.Product{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "description", "brand"}, nil)
		like := "%" + escapeLike(search) + "%"
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", filter.MinPrice.StringFixed(2))
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", filter.MaxPrice.StringFixed(2))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(resolveSort(filter.Sort, productSortColumns, productDefaultOrder))
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListFeatured 推荐商品，最新优先
func (r *GormProductRepository) ListFeatured(limit int) ([]models.Product, error) {
	var products []models.Product
	query := r.db.Preload("Category").
		Where("is_active = ? AND is_featured = ?", true, true).
		Order(productDefaultOrder)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return translateWriteError(r.db.Omit("Category").Create(product).Error)
}

// UpdateFields 仅写入给定列，库存与评分由各自的原子路径维护
func (r *GormProductRepository) UpdateFields(id uint, fields map[string]interface{}) (int64, error) {
	if id == 0 || len(fields) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, translateWriteError(result.Error)
	}
	return result.RowsAffected, nil
}

// AppendImages 在行锁内追加图片，只改 images 列
func (r *GormProductRepository) AppendImages(id uint, images models.Images) (int64, error) {
	if id == 0 || len(images) == 0 {
		return 0, nil
	}
	var rows int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var current models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "images").
			Where("id = ?", id).
			Take(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		merged := make(models.Images, 0, len(current.Images)+len(images))
		merged = append(merged, current.Images...)
		merged = append(merged, images...)
		result := tx.Model(&models.Product{}).Where("id = ?", id).UpdateColumn("images", merged)
		rows = result.RowsAffected
		return result.Error
	})
	return rows, err
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountBySlug 统计 slug 数量
func (r *GormProductRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DecrementStock 扣减库存，库存不足时不更新并返回 0 行
func (r *GormProductRepository) DecrementStock(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateRating 写回评分汇总
func (r *GormProductRepository) UpdateRating(productID uint, summary models.RatingSummary) error {
	return r.db.Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(map[string]interface{}{
		"rating_average": summary.Average,
		"rating_count":   summary.Count,
	}).Error
}
