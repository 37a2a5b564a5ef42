package models

import (
	"time"
)

// User 用户表
type User struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                           // 主键
	Name            string     `gorm:"type:varchar(50);not null" json:"name"`                          // 姓名
	Email           string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`            // 邮箱（小写）
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`                            // 密码哈希（不返回给前端）
	Role            string     `gorm:"type:varchar(20);not null;default:'customer';index" json:"role"` // 角色（customer/admin）
	AvatarURL       string     `gorm:"type:varchar(500)" json:"avatar"`                                // 头像
	Phone           string     `gorm:"type:varchar(32)" json:"phone"`                                  // 手机号
	Address         Address    `gorm:"type:json" json:"address"`                                       // 地址
	IsEmailVerified bool       `gorm:"not null;default:false" json:"isEmailVerified"`                  // 邮箱是否验证
	TokenVersion    uint64     `gorm:"not null;default:0" json:"-"`                                    // Token 版本（修改密码后递增）
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`                                          // 最后登录时间
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`                                         // 创建时间
	UpdatedAt       time.Time  `json:"updatedAt"`                                                      // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// UserSummary 订单、评价中展示的用户摘要
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
