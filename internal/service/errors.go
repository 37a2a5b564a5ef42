package service

import (
	"errors"
	"strings"

	"github.com/lumipure-api/internal/repository"
)

// 认证与授权
var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUnauthorized       = errors.New("Not authorized to access this route. Please login.")
	ErrTokenRevoked       = errors.New("Token is no longer valid. Please login again.")
	ErrForbidden          = errors.New("Access denied. Admin privileges required.")
	ErrOrderAccessDenied  = errors.New("Not authorized to view this order")
	ErrReviewAccessDenied = errors.New("Not authorized to delete this review")
	ErrWrongPassword      = errors.New("Current password is incorrect")
	ErrWeakPassword       = errors.New("Password does not meet the password policy")
	ErrCaptchaRequired    = errors.New("Captcha is required")
	ErrCaptchaInvalid     = errors.New("Invalid captcha")
	ErrCaptchaUnavailable = errors.New("Captcha is not enabled")
)

// 资源不存在
var (
	ErrUserNotFound           = errors.New("User not found")
	ErrProductNotFound        = errors.New("Product not found")
	ErrCategoryNotFound       = errors.New("Category not found")
	ErrParentCategoryNotFound = errors.New("Parent category not found")
	ErrCartItemNotFound       = errors.New("Item not found in cart")
	ErrOrderNotFound          = errors.New("Order not found")
	ErrReviewNotFound         = errors.New("Review not found")
)

// 业务校验
var (
	ErrInsufficientStock     = errors.New("Insufficient stock")
	ErrCartVariantConflict   = errors.New("Product is already in the cart with a different variant")
	ErrEmptyOrder            = errors.New("No order items provided")
	ErrInvalidOrderStatus    = errors.New("Invalid order status")
	ErrInvalidPaymentMethod  = errors.New("Invalid payment method")
	ErrInvalidQuantity       = errors.New("Quantity must be at least 1")
	ErrInvalidRating         = errors.New("Rating must be between 1 and 5")
	ErrInvalidParentCategory = errors.New("A category cannot be its own parent")
	ErrCategoryInUse         = errors.New("Category still has products or subcategories")
	ErrOrderNumberExhausted  = errors.New("Could not allocate a unique order number")
)

// 上传
var (
	ErrNoFiles            = errors.New("Please upload at least one image")
	ErrTooManyFiles       = errors.New("Too many images uploaded")
	ErrFileTooLarge       = errors.New("File is too large")
	ErrInvalidFileType    = errors.New("Unsupported file type")
	ErrImageTooLarge      = errors.New("Image dimensions are too large")
	ErrAssetStoreFailed   = errors.New("Image storage failed")
	ErrEmailNotConfigured = errors.New("Email service is not configured")
)

// DuplicateKeyError 唯一键冲突，由仓储层识别
type DuplicateKeyError = repository.DuplicateKeyError

// ValidationError 字段校验失败，Messages 逐条描述问题
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "Validation failed"
	}
	return "Validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError 创建校验错误
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// validationCollector 收集多条字段错误
type validationCollector struct {
	messages []string
}

func (v *validationCollector) check(ok bool, message string) {
	if !ok {
		v.messages = append(v.messages, message)
	}
}

func (v *validationCollector) err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: v.messages}
}

// 邮件
var (
	ErrEmailServiceDisabled   = errors.New("Email service is disabled")
	ErrInvalidEmail           = errors.New("Invalid email address")
	ErrEmailRecipientRejected = errors.New("Email recipient was rejected")
)
