package public

import (
	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	shared.CaptchaPayloadRequest
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	shared.CaptchaPayloadRequest
}

// UpdateProfileRequest 资料更新请求
type UpdateProfileRequest struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Avatar  *string         `json:"avatar"`
	Address *models.Address `json:"address"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// GetCaptcha 获取图片验证码
func (h *Handler) GetCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Captcha generated", challenge)
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.UserAuthService.Register(service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Captcha:  req.ToServicePayload(),
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Created(c, "User registered successfully", gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.UserAuthService.Login(req.Email, req.Password, req.ToServicePayload())
	if err != nil {
		h.recordUserLogin(c, req.Email, 0, constants.LoginLogStatusFailed, service.LoginFailReason(err))
		shared.RespondError(c, err)
		return
	}
	h.recordUserLogin(c, result.User.Email, result.User.ID, constants.LoginLogStatusSuccess, "")
	response.Success(c, "Login successful", gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

// Me 获取当前用户
func (h *Handler) Me(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetProfile(uid)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "User retrieved successfully", gin.H{"user": user})
}

// UpdateProfile 更新个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	user, err := h.UserAuthService.UpdateProfile(uid, service.ProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Avatar:  req.Avatar,
		Address: req.Address,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Profile updated successfully", gin.H{"user": user})
}

// ChangePassword 修改密码，返回新 token
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	if err := h.UserAuthService.ChangePassword(uid, req.CurrentPassword, req.NewPassword); err != nil {
		shared.RespondError(c, err)
		return
	}
	token, err := h.UserAuthService.IssueToken(uid)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Password changed successfully", gin.H{"token": token})
}

// MyLoginLogs 当前用户的登录历史
func (h *Handler) MyLoginLogs(c *gin.Context) {
	uid, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	page, limit := shared.ParsePagination(c, 0)
	logs, total, err := h.LoginLogService.ListByUser(uid, page, limit)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Login history retrieved successfully", gin.H{
		"logs":       logs,
		"pagination": response.BuildPagination(page, limit, total),
	})
}

func (h *Handler) recordUserLogin(c *gin.Context, email string, userID uint, status, failReason string) {
	if h == nil || h.LoginLogService == nil {
		return
	}
	err := h.LoginLogService.Record(service.RecordUserLoginInput{
		UserID:     userID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		RequestID:  c.GetString(constants.ContextKeyRequestID),
	})
	if err != nil {
		shared.RequestLog(c).Warnw("login_log_record_failed", "email", email, "error", err)
	}
}
