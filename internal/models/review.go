package models

import (
	"time"
)

// Review 商品评价，每个用户对每个商品仅一条
type Review struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                          // 主键
	ProductID          uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"productId"` // 商品ID
	UserID             uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"userId"`    // 用户ID
	Rating             int       `gorm:"not null" json:"rating"`                                        // 评分 1-5
	Title              string    `gorm:"type:varchar(100)" json:"title"`                                // 标题
	Comment            string    `gorm:"type:varchar(1000);not null" json:"comment"`                    // 内容
	Images             Images    `gorm:"type:json" json:"images"`                                       // 图片
	IsVerifiedPurchase bool      `gorm:"not null;default:false" json:"isVerifiedPurchase"`              // 是否已购
	Helpful            int       `gorm:"not null;default:0" json:"helpful"`                             // 有用数
	CreatedAt          time.Time `gorm:"index" json:"createdAt"`                                        // 创建时间
	UpdatedAt          time.Time `json:"updatedAt"`                                                     // 更新时间

	User *User `gorm:"foreignKey:UserID" json:"-"` // 评价用户
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}
