package public

import (
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	ProductID       uint             `json:"productId" binding:"required"`
	Quantity        int              `json:"quantity"`
	SelectedVariant models.StringMap `json:"selectedVariant"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Get(uid)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Cart retrieved successfully", gin.H{"cart": cart})
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	cart, err := h.CartService.AddItem(service.AddCartItemInput{
		UserID:          uid,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		SelectedVariant: req.SelectedVariant,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Item added to cart", gin.H{"cart": cart})
}

// UpdateCartItem 修改购物车数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseID(c, "productId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	cart, err := h.CartService.UpdateItem(uid, productID, req.Quantity)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Cart updated successfully", gin.H{"cart": cart})
}

// RemoveCartItem 移除购物车商品
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseID(c, "productId")
	if !ok {
		return
	}
	cart, err := h.CartService.RemoveItem(uid, productID)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Item removed from cart", gin.H{"cart": cart})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Clear(uid)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Cart cleared successfully", gin.H{"cart": cart})
}
