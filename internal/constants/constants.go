package constants

// 用户角色常量
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCard           = "card"
	PaymentMethodPaypal         = "paypal"
	PaymentMethodCashOnDelivery = "cod"
)

// 分页常量
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// 验证码场景
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 上下文键
const (
	ContextKeyRequestID = "request_id"
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
)

var orderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderStatuses 返回全部订单状态
func OrderStatuses() []string {
	return append([]string(nil), orderStatuses...)
}

// IsOrderStatus 判断是否为合法订单状态
func IsOrderStatus(status string) bool {
	for _, s := range orderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsPaymentMethod 判断是否为合法支付方式
func IsPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// IsTerminalOrderStatus 终态订单（已送达/已取消）
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// 异步任务
const (
	QueueDefault         = "default"
	TaskOrderStatusEmail = "order:status_email"
)

// 登录日志
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonCaptchaRequired    = "captcha_required"
	LoginLogFailReasonCaptchaInvalid     = "captcha_invalid"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonInternalError      = "internal_error"
)
