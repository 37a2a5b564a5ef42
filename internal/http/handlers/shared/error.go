package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/repository"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrInvalidID 路径中的标识无法解析
var ErrInvalidID = errors.New(response.MsgInvalidID)

var unauthorizedErrors = []error{
	service.ErrUnauthorized,
	service.ErrInvalidCredentials,
	service.ErrTokenRevoked,
	service.ErrWrongPassword,
}

var forbiddenErrors = []error{
	service.ErrForbidden,
	service.ErrOrderAccessDenied,
	service.ErrReviewAccessDenied,
}

var notFoundErrors = []error{
	service.ErrUserNotFound,
	service.ErrProductNotFound,
	service.ErrCategoryNotFound,
	service.ErrParentCategoryNotFound,
	service.ErrCartItemNotFound,
	service.ErrOrderNotFound,
	service.ErrReviewNotFound,
}

var badRequestErrors = []error{
	ErrInvalidID,
	service.ErrWeakPassword,
	service.ErrCaptchaRequired,
	service.ErrCaptchaInvalid,
	service.ErrCaptchaUnavailable,
	service.ErrInsufficientStock,
	service.ErrCartVariantConflict,
	service.ErrEmptyOrder,
	service.ErrInvalidOrderStatus,
	service.ErrInvalidPaymentMethod,
	service.ErrInvalidQuantity,
	service.ErrInvalidRating,
	service.ErrInvalidParentCategory,
	service.ErrCategoryInUse,
	service.ErrNoFiles,
	service.ErrTooManyFiles,
	service.ErrFileTooLarge,
	service.ErrInvalidFileType,
	service.ErrImageTooLarge,
}

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 将任意错误转换为统一错误响应，5xx 记录原始错误但不回显。
func RespondError(c *gin.Context, err error) {
	appErr := TranslateError(err)
	if appErr.Code >= http.StatusInternalServerError {
		RequestLog(c).Errorw("handler_error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	} else {
		RequestLog(c).Debugw("handler_rejected",
			"code", appErr.Code,
			"message", appErr.Message,
		)
	}
	response.Error(c, appErr.Code, appErr.Message, appErr.Errors...)
}

// TranslateError 按错误形态选择状态码与提示
func TranslateError(err error) *response.AppError {
	if err == nil {
		return response.WrapError(response.CodeInternal, response.MsgInternal, nil)
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return &response.AppError{Code: response.CodeBadRequest, Message: response.MsgValidationFailed, Errors: validationErr.Messages, Err: err}
	}
	var bindingErrs validator.ValidationErrors
	if errors.As(err, &bindingErrs) {
		return &response.AppError{Code: response.CodeBadRequest, Message: response.MsgValidationFailed, Errors: bindingMessages(bindingErrs), Err: err}
	}
	if messages, ok := decodeMessages(err); ok {
		return &response.AppError{Code: response.CodeBadRequest, Message: response.MsgValidationFailed, Errors: messages, Err: err}
	}
	if dup, ok := repository.AsDuplicateKey(err); ok {
		return response.WrapError(response.CodeBadRequest, dup.Error(), err)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return response.WrapError(response.CodeUnauthorized, response.MsgTokenExpired, err)
	}
	if isTokenError(err) {
		return response.WrapError(response.CodeUnauthorized, response.MsgInvalidToken, err)
	}

	switch {
	case matchesAny(err, unauthorizedErrors):
		return response.WrapError(response.CodeUnauthorized, err.Error(), err)
	case matchesAny(err, forbiddenErrors):
		return response.WrapError(response.CodeForbidden, err.Error(), err)
	case matchesAny(err, notFoundErrors):
		return response.WrapError(response.CodeNotFound, err.Error(), err)
	case matchesAny(err, badRequestErrors):
		return response.WrapError(response.CodeBadRequest, err.Error(), err)
	}
	return response.WrapError(response.CodeInternal, response.MsgInternal, err)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isTokenError(err error) bool {
	return matchesAny(err, []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrSignatureInvalid,
	})
}

// decodeMessages 识别请求体解析失败
func decodeMessages(err error) ([]string, bool) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []string{"Malformed JSON body"}, true
	}
	if errors.Is(err, io.EOF) {
		return []string{"Request body is required"}, true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []string{field + " has an invalid type"}, true
	}
	return nil, false
}
