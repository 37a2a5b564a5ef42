package models

import (
	"time"
)

// Category 分类表（自引用树，层级不限）
type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`  // 名称
	Slug        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"` // 由名称派生的唯一标识
	Description string    `gorm:"type:varchar(500)" json:"description"`               // 描述
	Image       Image     `gorm:"type:json" json:"image"`                             // 分类图片
	ParentID    *uint     `gorm:"index" json:"parentCategoryId"`                      // 父分类ID
	IsActive    bool      `gorm:"not null;index" json:"isActive"`                     // 是否启用
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`                             // 创建时间
	UpdatedAt   time.Time `json:"updatedAt"`                                          // 更新时间

	Parent *Category `gorm:"foreignKey:ParentID" json:"parentCategory,omitempty"` // 父分类
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
