package admin

import (
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求，缺省字段在更新时保持不变
type ProductRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"shortDescription"`
	Price            *decimal.Decimal `json:"price"`
	ComparePrice     *decimal.Decimal `json:"comparePrice"`
	Images           *models.Images   `json:"images"`
	CategoryID       *uint            `json:"category"`
	Stock            *int             `json:"stock"`
	SKU              *string          `json:"sku"`
	Brand            *string          `json:"brand"`
	Variants         *models.Variants `json:"variants"`
	Ingredients      *string          `json:"ingredients"`
	HowToUse         *string          `json:"howToUse"`
	IsFeatured       *bool            `json:"isFeatured"`
	IsActive         *bool            `json:"isActive"`
	Tags             *[]string        `json:"tags"`
	SeoTitle         *string          `json:"seoTitle"`
	SeoDescription   *string          `json:"seoDescription"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:             r.Name,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		ComparePrice:     r.ComparePrice,
		Images:           r.Images,
		CategoryID:       r.CategoryID,
		Stock:            r.Stock,
		SKU:              r.SKU,
		Brand:            r.Brand,
		Variants:         r.Variants,
		Ingredients:      r.Ingredients,
		HowToUse:         r.HowToUse,
		IsFeatured:       r.IsFeatured,
		IsActive:         r.IsActive,
		Tags:             r.Tags,
		SeoTitle:         r.SeoTitle,
		SeoDescription:   r.SeoDescription,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Created(c, "Product created successfully", gin.H{"product": product})
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Product updated successfully", gin.H{"product": product})
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), id); err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Product deleted successfully", nil)
}

// UploadProductImages 上传商品图片（multipart 字段 images）
func (h *Handler) UploadProductImages(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		shared.RespondError(c, service.ErrNoFiles)
		return
	}
	product, err := h.ProductService.AttachImages(c.Request.Context(), id, form.File["images"])
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Images uploaded successfully", gin.H{"images": product.Images})
}
