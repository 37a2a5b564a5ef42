package models

import (
	"time"
)

// RatingSummary 评分汇总（由评价全量重算）
type RatingSummary struct {
	Average float64 `gorm:"not null;default:0" json:"average"` // 平均分，保留 1 位小数
	Count   int     `gorm:"not null;default:0" json:"count"`   // 评价数
}

// Product 商品表
type Product struct {
	ID               uint          `gorm:"primarykey" json:"id"`                                      // 主键
	Name             string        `gorm:"type:varchar(200);not null" json:"name"`                    // 名称
	Slug             string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`        // 由名称派生的唯一标识
	Description      string        `gorm:"type:text;not null" json:"description"`                     // 描述
	ShortDescription string        `gorm:"type:varchar(500)" json:"shortDescription"`                 // 简述
	Price            Money         `gorm:"type:decimal(20,2);not null;default:0;index" json:"price"`  // 价格
	ComparePrice     Money         `gorm:"type:decimal(20,2);not null;default:0" json:"comparePrice"` // 划线价
	Images           Images        `gorm:"type:json" json:"images"`                                   // 图片
	CategoryID       uint          `gorm:"not null;index" json:"categoryId"`                          // 分类ID
	Stock            int           `gorm:"not null;default:0;index" json:"stock"`                     // 库存
	SKU              *string       `gorm:"type:varchar(64);uniqueIndex" json:"sku,omitempty"`         // SKU 编码（可空）
	Brand            string        `gorm:"type:varchar(120);index" json:"brand"`                      // 品牌
	Variants         Variants      `gorm:"type:json" json:"variants"`                                 // 规格定义
	Ingredients      string        `gorm:"type:varchar(1000)" json:"ingredients"`                     // 成分
	HowToUse         string        `gorm:"type:varchar(1000)" json:"howToUse"`                        // 使用方法
	Rating           RatingSummary `gorm:"embedded;embeddedPrefix:rating_" json:"ratings"`            // 评分汇总
	IsFeatured       bool          `gorm:"not null;index" json:"isFeatured"`                          // 是否推荐
	IsActive         bool          `gorm:"not null;index" json:"isActive"`                            // 是否上架
	Tags             StringArray   `gorm:"type:json" json:"tags"`                                     // 标签
	SeoTitle         string        `gorm:"type:varchar(255)" json:"seoTitle"`                         // SEO 标题
	SeoDescription   string        `gorm:"type:varchar(500)" json:"seoDescription"`                   // SEO 描述
	CreatedAt        time.Time     `gorm:"index" json:"createdAt"`                                    // 创建时间
	UpdatedAt        time.Time     `json:"updatedAt"`                                                 // 更新时间

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductSummary 购物车中展示的商品摘要
type ProductSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Price  Money  `json:"price"`
	Images Images `json:"images"`
	Stock  int    `json:"stock"`
}

// Summary 生成商品摘要
func (p *Product) Summary() *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price,
		Images: p.Images,
		Stock:  p.Stock,
	}
}
