package models

import (
	"errors"
	"strings"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminName     = "Admin User"
	defaultAdminEmail    = "admin@lumipure.com"
	defaultAdminPassword = "admin123"
)

// InitDefaultAdmin 在不存在管理员时创建默认管理员账号
func InitDefaultAdmin(email, password string) error {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := EnsureAdminUser(DB, defaultAdminName, email, password)
	return err
}

// EnsureAdminUser 按邮箱确保管理员存在，返回是否新建
func EnsureAdminUser(db *gorm.DB, name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = defaultAdminEmail
	}
	if strings.TrimSpace(name) == "" {
		name = defaultAdminName
	}
	if password == "" {
		password = defaultAdminPassword
	}

	var existing User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != constants.RoleAdmin {
			if err := db.Model(&existing).Update("role", constants.RoleAdmin).Error; err != nil {
				return false, err
			}
			logger.Warnw("default_admin_role_promoted", "email", email)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := User{
		Name:            name,
		Email:           email,
		PasswordHash:    string(hash),
		Role:            constants.RoleAdmin,
		IsEmailVerified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return true, nil
}
