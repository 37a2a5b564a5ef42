package repository

import (
	"errors"
	"math"

	"github.com/lumipure-api/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	Create(review *models.Review) error
	GetByID(id uint) (*models.Review, error)
	ExistsByProductAndUser(productID, userID uint) (bool, error)
	ListByProduct(filter ReviewListFilter) ([]models.Review, int64, error)
	Delete(id uint) error
	AggregateByProduct(productID uint) (models.RatingSummary, error)
	WithTx(tx *gorm.DB) *GormReviewRepository
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// Create 创建评价
func (r *GormReviewRepository) Create(review *models.Review) error {
	return translateWriteError(r.db.Omit("User").Create(review).Error)
}

// GetByID 根据 ID 获取评价
func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.Preload("User").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// ExistsByProductAndUser 用户是否已评价该商品
func (r *GormReviewRepository) ExistsByProductAndUser(productID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Review{}).Where("product_id = ? AND user_id = ?", productID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByProduct 商品评价列表，最新优先
func (r *GormReviewRepository) ListByProduct(filter ReviewListFilter) ([]models.Review, int64, error) {
	var reviews []models.Review
	query := r.db.Model(&models.Review{}).Where("product_id = ?", filter.ProductID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("User").Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Delete 删除评价
func (r *GormReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Review{}, id).Error
}

// AggregateByProduct 全量计算商品评分均值与条数，均值保留 1 位小数
func (r *GormReviewRepository) AggregateByProduct(productID uint) (models.RatingSummary, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.Model(&models.Review{}).
		Select("CAST(AVG(rating) AS FLOAT) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return models.RatingSummary{}, err
	}
	summary := models.RatingSummary{Count: int(row.Count)}
	if row.Count > 0 && row.Average != nil {
		summary.Average = roundToOneDecimal(*row.Average)
	}
	return summary, nil
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
