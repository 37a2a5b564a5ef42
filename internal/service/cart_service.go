package service

import (
	"strings"

	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"
)

// CartLine 购物车行（用于响应）
type CartLine struct {
	ID              uint                   `json:"id"`
	ProductID       uint                   `json:"productId"`
	Product         *models.ProductSummary `json:"product"`
	Quantity        int                    `json:"quantity"`
	SelectedVariant models.StringMap       `json:"selectedVariant"`
	Price           models.Money           `json:"price"`
}

// CartView 用户购物车
type CartView struct {
	UserID     uint         `json:"user"`
	Items      []CartLine   `json:"items"`
	TotalItems int          `json:"totalItems"`
	TotalPrice models.Money `json:"totalPrice"`
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	UserID          uint
	ProductID       uint
	Quantity        int
	SelectedVariant models.StringMap
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get 获取用户购物车，不存在时返回空购物车
func (s *CartService) Get(userID uint) (*CartView, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{UserID: userID, Items: make([]CartLine, 0, len(items))}
	for _, item := range items {
		view.Items = append(view.Items, CartLine{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Product:         item.Product.Summary(),
			Quantity:        item.Quantity,
			SelectedVariant: item.SelectedVariant,
			Price:           item.Price,
		})
		view.TotalItems += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(item.Price.Times(item.Quantity))
	}
	return view, nil
}

// AddItem 加入购物车，同一商品合并为一行
func (s *CartService) AddItem(input AddCartItemInput) (*CartView, error) {
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.Quantity > product.Stock {
		return nil, ErrInsufficientStock
	}
	variant := normalizeVariant(input.SelectedVariant)

	existing, err := s.cartRepo.GetByUserAndProduct(input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.merge(existing, input.Quantity, variant); err != nil {
			return nil, err
		}
		return s.Get(input.UserID)
	}

	item := &models.CartItem{
		UserID:          input.UserID,
		ProductID:       input.ProductID,
		Quantity:        input.Quantity,
		SelectedVariant: variant,
		Price:           product.Price,
	}
	if err := s.cartRepo.Create(item); err != nil {
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
		// 并发加购同一商品时唯一索引冲突，转为合并
		existing, err = s.cartRepo.GetByUserAndProduct(input.UserID, input.ProductID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrCartItemNotFound
		}
		if err := s.merge(existing, input.Quantity, variant); err != nil {
			return nil, err
		}
	}
	return s.Get(input.UserID)
}

func (s *CartService) merge(existing *models.CartItem, quantity int, variant models.StringMap) error {
	if len(variant) > 0 && variant.Key() != existing.SelectedVariant.Key() {
		return ErrCartVariantConflict
	}
	return s.cartRepo.IncrementQuantity(existing.ID, quantity)
}

// UpdateItem 修改购物车行数量，不重新校验库存
func (s *CartService) UpdateItem(userID, productID uint, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	rows, err := s.cartRepo.UpdateQuantity(userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.Get(userID)
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(userID, productID uint) (*CartView, error) {
	rows, err := s.cartRepo.DeleteByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.Get(userID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) (*CartView, error) {
	if err := s.cartRepo.ClearByUser(userID); err != nil {
		return nil, err
	}
	return &CartView{UserID: userID, Items: []CartLine{}}, nil
}

func normalizeVariant(variant models.StringMap) models.StringMap {
	normalized := models.StringMap{}
	for k, v := range variant {
		key := strings.TrimSpace(k)
		value := strings.TrimSpace(v)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}
