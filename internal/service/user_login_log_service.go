package service

import (
	"errors"
	"strings"
	"time"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"
)

// UserLoginLogService 登录日志服务
type UserLoginLogService struct {
	repo     repository.UserLoginLogRepository
	userRepo repository.UserRepository
}

// NewUserLoginLogService 创建登录日志服务，userRepo 用于把失败尝试归到已存在的账号
func NewUserLoginLogService(repo repository.UserLoginLogRepository, userRepo repository.UserRepository) *UserLoginLogService {
	return &UserLoginLogService{repo: repo, userRepo: userRepo}
}

// RecordUserLoginInput 登录日志记录输入
type RecordUserLoginInput struct {
	UserID     uint
	Email      string
	Status     string
	FailReason string
	ClientIP   string
	UserAgent  string
	RequestID  string
}

// Record 记录一次登录尝试
func (s *UserLoginLogService) Record(input RecordUserLoginInput) error {
	if s == nil || s.repo == nil {
		return nil
	}

	email := strings.TrimSpace(input.Email)
	if normalized, err := normalizeEmail(email); err == nil {
		email = normalized
	}

	userID := input.UserID
	if userID == 0 && email != "" && s.userRepo != nil {
		if user, err := s.userRepo.GetByEmail(email); err == nil && user != nil {
			userID = user.ID
		}
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != constants.LoginLogStatusSuccess {
		status = constants.LoginLogStatusFailed
	}
	failReason := strings.ToLower(strings.TrimSpace(input.FailReason))
	if status == constants.LoginLogStatusSuccess {
		failReason = ""
	} else if failReason == "" {
		failReason = constants.LoginLogFailReasonInternalError
	}

	userAgent := strings.TrimSpace(input.UserAgent)
	if runes := []rune(userAgent); len(runes) > 500 {
		userAgent = string(runes[:500])
	}

	return s.repo.Create(&models.UserLoginLog{
		UserID:     userID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		UserAgent:  userAgent,
		RequestID:  strings.TrimSpace(input.RequestID),
		CreatedAt:  time.Now(),
	})
}

// ListByUser 用户查询自己的登录日志
func (s *UserLoginLogService) ListByUser(userID uint, page, limit int) ([]models.UserLoginLog, int64, error) {
	if s == nil || s.repo == nil || userID == 0 {
		return []models.UserLoginLog{}, 0, nil
	}
	return s.repo.ListByUser(userID, page, limit)
}

// LoginFailReason 将登录错误归类为日志失败原因
func LoginFailReason(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return constants.LoginLogFailReasonBadRequest
	case errors.Is(err, ErrCaptchaRequired):
		return constants.LoginLogFailReasonCaptchaRequired
	case errors.Is(err, ErrCaptchaInvalid):
		return constants.LoginLogFailReasonCaptchaInvalid
	case errors.Is(err, ErrInvalidCredentials):
		return constants.LoginLogFailReasonInvalidCredentials
	default:
		return constants.LoginLogFailReasonInternalError
	}
}
