package models

import (
	"time"
)

// CartItem 购物车项，每个用户每个商品一行
type CartItem struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID          uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"userId"`    // 用户ID
	ProductID       uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"productId"` // 商品ID
	Quantity        int       `gorm:"not null" json:"quantity"`                                    // 数量
	SelectedVariant StringMap `gorm:"type:json" json:"selectedVariant"`                            // 所选规格
	Price           Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`          // 加购时价格快照
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`                                      // 创建时间
	UpdatedAt       time.Time `json:"updatedAt"`                                                   // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"-"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
