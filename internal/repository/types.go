package repository

import "github.com/shopspring/decimal"

// ProductListFilter 商品列表筛选
type ProductListFilter struct {
	Page       int
	PageSize   int
	CategoryID uint
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	OnlyActive bool
}

// OrderListFilter 订单列表筛选
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}

// ReviewListFilter 评价列表筛选
type ReviewListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
}
