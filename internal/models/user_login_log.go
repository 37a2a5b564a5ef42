package models

import "time"

// UserLoginLog 登录尝试记录，供用户查看自己的登录历史
type UserLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint      `gorm:"index" json:"userId"`                           // 用户ID（账号不存在时为0）
	Email      string    `gorm:"type:varchar(255);index;not null" json:"email"` // 登录邮箱
	Status     string    `gorm:"type:varchar(16);index;not null" json:"status"` // success / failed
	FailReason string    `gorm:"type:varchar(32)" json:"failReason,omitempty"`  // 失败原因
	ClientIP   string    `gorm:"type:varchar(64)" json:"clientIp"`              // 客户端IP
	UserAgent  string    `gorm:"type:varchar(500)" json:"userAgent"`            // 客户端UA
	RequestID  string    `gorm:"type:varchar(64)" json:"requestId"`             // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`                        // 记录时间
}

// TableName 指定表名
func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
