package response

import "net/http"

const (
	CodeBadRequest      = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeInternal        = http.StatusInternalServerError
)

// 通用提示
const (
	MsgValidationFailed = "Validation failed"
	MsgInvalidID        = "Invalid ID format"
	MsgInvalidToken     = "Invalid token"
	MsgTokenExpired     = "Token expired"
	MsgTooManyRequests  = "Too many requests. Please try again later."
	MsgInternal         = "Internal server error"
	MsgRouteNotFound    = "Route not found"
)
