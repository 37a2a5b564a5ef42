package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StatusEntry 订单状态变更记录
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// StatusHistory 按时间追加的状态日志
type StatusHistory []StatusEntry

// Value 实现 driver.Valuer 接口
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (h *StatusHistory) Scan(value interface{}) error {
	*h = StatusHistory{}
	return scanJSON(value, h)
}

// Last 返回最后一条记录
func (h StatusHistory) Last() (StatusEntry, bool) {
	if len(h) == 0 {
		return StatusEntry{}, false
	}
	return h[len(h)-1], true
}

// ShippingAddress 收货地址
type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Value 实现 driver.Valuer 接口
func (a ShippingAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (a *ShippingAddress) Scan(value interface{}) error {
	*a = ShippingAddress{}
	return scanJSON(value, a)
}

// PaymentDetails 支付明细
type PaymentDetails struct {
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// Value 实现 driver.Valuer 接口
func (p PaymentDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (p *PaymentDetails) Scan(value interface{}) error {
	*p = PaymentDetails{}
	return scanJSON(value, p)
}

// PromoCode 下单时使用的优惠码
type PromoCode struct {
	Code     string `json:"code,omitempty"`
	Discount Money  `json:"discount"`
}

// Value 实现 driver.Valuer 接口
func (p PromoCode) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (p *PromoCode) Scan(value interface{}) error {
	*p = PromoCode{}
	return scanJSON(value, p)
}

// Order 订单表（创建后仅允许状态流转，不删除）
type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`                                        // 主键
	OrderNumber     string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"`    // 订单编号
	UserID          uint            `gorm:"index;not null" json:"userId"`                                // 用户ID
	ShippingAddress ShippingAddress `gorm:"type:json;not null" json:"shippingAddress"`                   // 收货地址
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"paymentMethod"`              // 支付方式
	PaymentStatus   string          `gorm:"type:varchar(20);not null;index" json:"paymentStatus"`        // 支付状态
	PaymentDetails  PaymentDetails  `gorm:"type:json" json:"paymentDetails"`                             // 支付明细
	OrderStatus     string          `gorm:"type:varchar(20);not null;index" json:"orderStatus"`          // 订单状态
	StatusHistory   StatusHistory   `gorm:"type:json" json:"statusHistory"`                              // 状态日志
	ItemsPrice      Money           `gorm:"type:decimal(20,2);not null;default:0" json:"itemsPrice"`     // 商品金额
	ShippingPrice   Money           `gorm:"type:decimal(20,2);not null;default:0" json:"shippingPrice"`  // 运费
	TaxPrice        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"taxPrice"`       // 税费
	DiscountAmount  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discountAmount"` // 优惠金额
	TotalPrice      Money           `gorm:"type:decimal(20,2);not null;default:0" json:"totalPrice"`     // 实付金额
	PromoCode       PromoCode       `gorm:"type:json" json:"promoCode"`                                  // 优惠码
	DeliveredAt     *time.Time      `gorm:"index" json:"deliveredAt"`                                    // 送达时间
	Notes           string          `gorm:"type:varchar(1000)" json:"notes"`                             // 备注
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`                                      // 创建时间
	UpdatedAt       time.Time       `json:"updatedAt"`                                                   // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`         // 订单项快照
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"` // 下单用户
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项快照，商品后续修改不影响历史订单
type OrderItem struct {
	ID              uint      `gorm:"primarykey" json:"id"`                               // 主键
	OrderID         uint      `gorm:"index;not null" json:"orderId"`                      // 订单ID
	ProductID       uint      `gorm:"index;not null" json:"productId"`                    // 商品ID（仅用于回查）
	Name            string    `gorm:"type:varchar(200);not null" json:"name"`             // 商品名称快照
	Quantity        int       `gorm:"not null" json:"quantity"`                           // 数量
	Price           Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价快照
	Image           string    `gorm:"type:varchar(500)" json:"image"`                     // 主图快照
	SelectedVariant StringMap `gorm:"type:json" json:"selectedVariant"`                   // 所选规格
	CreatedAt       time.Time `json:"createdAt"`                                          // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
