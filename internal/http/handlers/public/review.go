package public

import (
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateReviewRequest 评价请求
type CreateReviewRequest struct {
	Rating  int           `json:"rating" binding:"required"`
	Title   string        `json:"title"`
	Comment string        `json:"comment" binding:"required"`
	Images  models.Images `json:"images"`
}

// ListProductReviews 商品评价列表
func (h *Handler) ListProductReviews(c *gin.Context) {
	productID, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	page, limit := shared.ParsePagination(c, 0)
	reviews, total, err := h.ReviewService.ListByProduct(productID, page, limit)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Reviews retrieved successfully", gin.H{
		"reviews":    reviews,
		"pagination": response.BuildPagination(page, limit, total),
	})
}

// CreateReview 发表评价
func (h *Handler) CreateReview(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	review, err := h.ReviewService.Create(c.Request.Context(), service.CreateReviewInput{
		ProductID: productID,
		UserID:    uid,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Images:    req.Images,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Created(c, "Review added successfully", gin.H{"review": review})
}

// DeleteReview 删除评价，仅作者或管理员
func (h *Handler) DeleteReview(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	reviewID, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.ReviewService.Delete(c.Request.Context(), reviewID, uid, shared.GetUserRole(c)); err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Review deleted successfully", nil)
}
