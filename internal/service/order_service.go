package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/metrics"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/queue"
	"github.com/lumipure-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberAttempts = 5

// OrderService 订单服务
type OrderService struct {
	cfg         config.OrderConfig
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	queueClient *queue.Client
	metrics     *metrics.Registry
	now         func() time.Time
	newNumber   func(prefix string, at time.Time) string
	invalidate  catalogInvalidator
}

// NewOrderService 创建订单服务
func NewOrderService(cfg *config.Config, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, queueClient *queue.Client, registry *metrics.Registry) *OrderService {
	return &OrderService{
		cfg:         cfg.Order,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		queueClient: queueClient,
		metrics:     registry,
		now:         time.Now,
		newNumber:   generateOrderNumber,
		invalidate:  defaultCatalogInvalidator(),
	}
}

// CreateOrderItem 下单项
type CreateOrderItem struct {
	ProductID       uint
	Quantity        int
	SelectedVariant models.StringMap
}

// CreateOrderInput 创建订单输入，金额字段为空时按快照计算
type CreateOrderInput struct {
	UserID          uint
	Items           []CreateOrderItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ItemsPrice      *decimal.Decimal
	ShippingPrice   *decimal.Decimal
	TaxPrice        *decimal.Decimal
	DiscountAmount  *decimal.Decimal
	TotalPrice      *decimal.Decimal
	PromoCode       *models.PromoCode
	Notes           string
}

// CreateOrder 下单：写订单、扣库存、清空购物车在同一事务内完成
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		orderNumber, err := s.nextOrderNumber()
		if err != nil {
			return nil, err
		}
		order, err = s.placeOrder(input, items, orderNumber)
		if err == nil {
			break
		}
		var dup *DuplicateKeyError
		if errors.As(err, &dup) && dup.Field == "order_number" {
			logger.Warnw("order_number_collision", "order_number", orderNumber, "attempt", attempt+1)
			order = nil
			continue
		}
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNumberExhausted
	}

	// 库存已变化，列表中的 stock 需要重新读取
	s.invalidate.run(context.Background(), "order_created")
	s.metrics.OrderCreated()
	logger.Infow("order_created", "order_id", order.ID, "order_number", order.OrderNumber, "user_id", order.UserID, "total", order.TotalPrice.String())
	return s.orderRepo.GetByID(order.ID)
}

func (s *OrderService) placeOrder(input CreateOrderInput, items []CreateOrderItem, orderNumber string) (*models.Order, error) {
	now := s.now()
	order := &models.Order{
		OrderNumber:     orderNumber,
		UserID:          input.UserID,
		ShippingAddress: trimShippingAddress(input.ShippingAddress),
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   constants.PaymentStatusPending,
		OrderStatus:     constants.OrderStatusPending,
		StatusHistory:   models.StatusHistory{{Status: constants.OrderStatusPending, Timestamp: now}},
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.PromoCode != nil {
		order.PromoCode = *input.PromoCode
	}

	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product, err := productRepo.GetByID(item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			orderItems = append(orderItems, models.OrderItem{
				ProductID:       product.ID,
				Name:            product.Name,
				Quantity:        item.Quantity,
				Price:           product.Price,
				Image:           product.Images.First(),
				SelectedVariant: normalizeVariant(item.SelectedVariant),
				CreatedAt:       now,
			})
		}
		applyOrderPrices(order, orderItems, input)

		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return err
		}
		for _, item := range orderItems {
			rows, err := productRepo.DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, item.Name)
			}
		}
		return s.cartRepo.WithTx(tx).ClearByUser(input.UserID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListMine 当前用户订单
func (s *OrderService) ListMine(userID uint, page, limit int) ([]models.Order, int64, error) {
	if limit <= 0 {
		limit = s.cfg.MyOrdersLimit
	}
	return s.orderRepo.ListByUser(repository.OrderListFilter{Page: page, PageSize: limit, UserID: userID})
}

// Get 查看订单，仅本人或管理员可见
func (s *OrderService) Get(orderID, callerID uint, callerRole string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != callerID && callerRole != constants.RoleAdmin {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// ListAll 管理端订单列表
func (s *OrderService) ListAll(status string, page, limit int) ([]models.Order, int64, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !constants.IsOrderStatus(status) {
		return nil, 0, ErrInvalidOrderStatus
	}
	if limit <= 0 {
		limit = s.cfg.AdminListLimit
	}
	return s.orderRepo.ListAdmin(repository.OrderListFilter{Page: page, PageSize: limit, Status: status})
}

// UpdateOrderStatus 管理员更新订单状态，不校验流转顺序
func (s *OrderService) UpdateOrderStatus(orderID uint, status, note string) (*models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !constants.IsOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	history := appendStatusHistory(order.StatusHistory, status, note, now)
	var deliveredAt *time.Time
	if status == constants.OrderStatusDelivered {
		deliveredAt = &now
	}
	rows, err := s.orderRepo.UpdateStatus(order.ID, status, history, deliveredAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderNotFound
	}
	s.metrics.OrderStatusChanged(status)

	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: order.ID,
		Status:  status,
		Note:    strings.TrimSpace(note),
	}); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", order.ID, "status", status, "error", err)
	}
	return s.orderRepo.GetByID(order.ID)
}

// appendStatusHistory 追加一条状态记录，备注写在新追加的记录上
func appendStatusHistory(history models.StatusHistory, status, note string, at time.Time) models.StatusHistory {
	next := make(models.StatusHistory, len(history), len(history)+1)
	copy(next, history)
	return append(next, models.StatusEntry{
		Status:    status,
		Timestamp: at,
		Note:      strings.TrimSpace(note),
	})
}

// mergeCreateOrderItems 合并重复商品的下单项
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	merged := make([]CreateOrderItem, 0, len(items))
	indexMap := make(map[uint]int)
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, NewValidationError("Product is required for every order item")
		}
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := indexMap[item.ProductID]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func validateOrderInput(input CreateOrderInput) error {
	addr := trimShippingAddress(input.ShippingAddress)
	v := &validationCollector{}
	v.check(addr.Name != "", "Shipping name is required")
	v.check(addr.Phone != "", "Shipping phone is required")
	v.check(addr.Street != "", "Shipping street is required")
	v.check(addr.City != "", "Shipping city is required")
	v.check(addr.State != "", "Shipping state is required")
	v.check(addr.ZipCode != "", "Shipping zip code is required")
	v.check(addr.Country != "", "Shipping country is required")
	v.check(constants.IsPaymentMethod(input.PaymentMethod), ErrInvalidPaymentMethod.Error())
	for _, amount := range []*decimal.Decimal{input.ItemsPrice, input.ShippingPrice, input.TaxPrice, input.DiscountAmount, input.TotalPrice} {
		if amount != nil && amount.IsNegative() {
			v.check(false, "Order amounts cannot be negative")
			break
		}
	}
	return v.err()
}

// applyOrderPrices 未提供的金额按快照计算：total = items + shipping + tax - discount
func applyOrderPrices(order *models.Order, items []models.OrderItem, input CreateOrderInput) {
	itemsPrice := models.Money{}
	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.Price.Times(item.Quantity))
	}
	if input.ItemsPrice != nil {
		itemsPrice = models.NewMoneyFromDecimal(*input.ItemsPrice)
	}
	order.ItemsPrice = itemsPrice
	order.ShippingPrice = moneyOrZero(input.ShippingPrice)
	order.TaxPrice = moneyOrZero(input.TaxPrice)
	order.DiscountAmount = moneyOrZero(input.DiscountAmount)
	if input.DiscountAmount == nil && !order.PromoCode.Discount.IsZero() {
		order.DiscountAmount = order.PromoCode.Discount
	}
	if input.TotalPrice != nil {
		order.TotalPrice = models.NewMoneyFromDecimal(*input.TotalPrice)
		return
	}
	total := order.ItemsPrice.Add(order.ShippingPrice).Add(order.TaxPrice).Sub(order.DiscountAmount)
	if total.IsNegative() {
		total = models.Money{}
	}
	order.TotalPrice = total
}

func moneyOrZero(amount *decimal.Decimal) models.Money {
	if amount == nil {
		return models.Money{}
	}
	return models.NewMoneyFromDecimal(*amount)
}

func trimShippingAddress(addr models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		Name:    strings.TrimSpace(addr.Name),
		Phone:   strings.TrimSpace(addr.Phone),
		Street:  strings.TrimSpace(addr.Street),
		City:    strings.TrimSpace(addr.City),
		State:   strings.TrimSpace(addr.State),
		ZipCode: strings.TrimSpace(addr.ZipCode),
		Country: strings.TrimSpace(addr.Country),
	}
}

func (s *OrderService) nextOrderNumber() (string, error) {
	prefix := strings.TrimSpace(s.cfg.NumberPrefix)
	if prefix == "" {
		prefix = "LP"
	}
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate := s.newNumber(prefix, s.now())
		exists, err := s.orderRepo.ExistsByOrderNumber(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrOrderNumberExhausted
}

// generateOrderNumber 前缀 + 年月(yymm) + 4 位随机数
func generateOrderNumber(prefix string, at time.Time) string {
	return prefix + at.Format("0601") + randNumeric(4)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
