package public

import (
	"strings"

	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, limit := shared.ParsePagination(c, 0)
	query := service.ProductQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.TrimSpace(c.Query("sort")),
	}

	var messages []string
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := shared.ParseUint(raw)
		if err != nil {
			shared.RespondError(c, err)
			return
		}
		query.CategoryID = id
	}
	query.MinPrice = parsePriceQuery(c, "minPrice", &messages)
	query.MaxPrice = parsePriceQuery(c, "maxPrice", &messages)
	if len(messages) > 0 {
		shared.RespondError(c, service.NewValidationError(messages...))
		return
	}

	result, err := h.ProductService.List(c.Request.Context(), query)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Products retrieved successfully", gin.H{
		"products":   result.Items,
		"pagination": response.BuildPagination(page, limit, result.Total),
	})
}

// FeaturedProducts 推荐商品
func (h *Handler) FeaturedProducts(c *gin.Context) {
	products, err := h.ProductService.Featured()
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Featured products retrieved successfully", gin.H{"products": products})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.Get(id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Product retrieved successfully", gin.H{"product": product})
}

func parsePriceQuery(c *gin.Context, name string, messages *[]string) *decimal.Decimal {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		*messages = append(*messages, name+" must be a non-negative number")
		return nil
	}
	return &value
}
