package service

import (
	"context"
	"strings"

	"github.com/lumipure-api/internal/cache"
	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"
)

// ReviewAuthor 评价作者公开信息
type ReviewAuthor struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ReviewView 评价（用于响应）
type ReviewView struct {
	models.Review
	Author *ReviewAuthor `json:"user,omitempty"`
}

// CreateReviewInput 创建评价输入
type CreateReviewInput struct {
	ProductID uint
	UserID    uint
	Rating    int
	Title     string
	Comment   string
	Images    models.Images
}

// ReviewService 评价服务，评分汇总在评价写入提交后全量重算
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

// NewReviewService 创建评价服务
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, orderRepo repository.OrderRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// Create 创建评价，同一用户对同一商品仅允许一条
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*ReviewView, error) {
	title := strings.TrimSpace(input.Title)
	comment := strings.TrimSpace(input.Comment)
	v := &validationCollector{}
	v.check(input.Rating >= 1 && input.Rating <= 5, ErrInvalidRating.Error())
	v.check(comment != "", "Review comment is required")
	v.check(len([]rune(comment)) <= 1000, "Comment cannot exceed 1000 characters")
	v.check(len([]rune(title)) <= 100, "Title cannot exceed 100 characters")
	if err := v.err(); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	exists, err := s.reviewRepo.ExistsByProductAndUser(input.ProductID, input.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateKeyError{Field: "review"}
	}
	verified, err := s.orderRepo.HasDeliveredPurchase(input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID:          input.ProductID,
		UserID:             input.UserID,
		Rating:             input.Rating,
		Title:              title,
		Comment:            comment,
		Images:             input.Images,
		IsVerifiedPurchase: verified,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, &DuplicateKeyError{Field: "review"}
		}
		return nil, err
	}

	s.recomputeAfterWrite(ctx, input.ProductID)
	created, err := s.reviewRepo.GetByID(review.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrReviewNotFound
	}
	return toReviewView(*created), nil
}

// ListByProduct 商品评价列表，最新在前
func (s *ReviewService) ListByProduct(productID uint, page, limit int) ([]ReviewView, int64, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, 0, err
	}
	if product == nil {
		return nil, 0, ErrProductNotFound
	}
	reviews, total, err := s.reviewRepo.ListByProduct(repository.ReviewListFilter{
		Page:      page,
		PageSize:  limit,
		ProductID: productID,
	})
	if err != nil {
		return nil, 0, err
	}
	views := make([]ReviewView, 0, len(reviews))
	for _, review := range reviews {
		views = append(views, *toReviewView(review))
	}
	return views, total, nil
}

// Delete 删除评价，仅作者或管理员
func (s *ReviewService) Delete(ctx context.Context, reviewID, callerID uint, callerRole string) error {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if review.UserID != callerID && callerRole != constants.RoleAdmin {
		return ErrReviewAccessDenied
	}
	if err := s.reviewRepo.Delete(review.ID); err != nil {
		return err
	}
	s.recomputeAfterWrite(ctx, review.ProductID)
	return nil
}

// RecomputeRating 按全部评价重算商品评分
func (s *ReviewService) RecomputeRating(productID uint) (models.RatingSummary, error) {
	summary, err := s.reviewRepo.AggregateByProduct(productID)
	if err != nil {
		return models.RatingSummary{}, err
	}
	if err := s.productRepo.UpdateRating(productID, summary); err != nil {
		return models.RatingSummary{}, err
	}
	return summary, nil
}

// recomputeAfterWrite 评价已提交，重算失败只记录日志
func (s *ReviewService) recomputeAfterWrite(ctx context.Context, productID uint) {
	if _, err := s.RecomputeRating(productID); err != nil {
		logger.Errorw("rating_recompute_failed", "product_id", productID, "error", err)
		return
	}
	if err := cache.InvalidateCatalog(ctx); err != nil {
		logger.Warnw("product_list_cache_invalidate_failed", "error", err)
	}
}

func toReviewView(review models.Review) *ReviewView {
	view := &ReviewView{Review: review}
	if review.User != nil {
		view.Author = &ReviewAuthor{
			ID:     review.User.ID,
			Name:   review.User.Name,
			Avatar: review.User.AvatarURL,
		}
	}
	return view
}
