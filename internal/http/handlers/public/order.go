package public

import (
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderItemRequest 下单商品
type OrderItemRequest struct {
	ProductID       uint             `json:"product"`
	Quantity        int              `json:"quantity"`
	SelectedVariant models.StringMap `json:"selectedVariant"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      *decimal.Decimal       `json:"itemsPrice"`
	ShippingPrice   *decimal.Decimal       `json:"shippingPrice"`
	TaxPrice        *decimal.Decimal       `json:"taxPrice"`
	DiscountAmount  *decimal.Decimal       `json:"discountAmount"`
	TotalPrice      *decimal.Decimal       `json:"totalPrice"`
	PromoCode       *models.PromoCode      `json:"promoCode"`
	Notes           string                 `json:"notes"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			SelectedVariant: item.SelectedVariant,
		})
	}
	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:          uid,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		DiscountAmount:  req.DiscountAmount,
		TotalPrice:      req.TotalPrice,
		PromoCode:       req.PromoCode,
		Notes:           req.Notes,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Created(c, "Order created successfully", gin.H{"order": order})
}

// MyOrders 当前用户订单列表
func (h *Handler) MyOrders(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	page, limit := shared.ParsePagination(c, h.Config.Order.MyOrdersLimit)
	orders, total, err := h.OrderService.ListMine(uid, page, limit)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Orders retrieved successfully", gin.H{
		"orders":     orders,
		"pagination": response.BuildPagination(page, limit, total),
	})
}

// GetOrder 订单详情，仅本人或管理员可见
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(orderID, uid, shared.GetUserRole(c))
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Order retrieved successfully", gin.H{"order": order})
}
