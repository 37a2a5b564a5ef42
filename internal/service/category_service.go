package service

import (
	"context"
	"strings"

	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo       repository.CategoryRepository
	invalidate catalogInvalidator
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo, invalidate: defaultCatalogInvalidator()}
}

// CategoryInput 创建/更新分类输入，更新时 nil 字段保持不变
type CategoryInput struct {
	Name        *string
	Description *string
	Image       *models.Image
	ParentID    *uint
	ClearParent bool
	IsActive    *bool
}

// List 获取启用的分类列表
func (s *CategoryService) List() ([]models.Category, error) {
	return s.repo.ListActive()
}

// Get 获取分类
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create 创建分类
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	category := models.Category{IsActive: true}
	if input.Name == nil {
		return nil, NewValidationError("Category name is required")
	}
	if err := s.apply(&category, input); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(category.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, err
	}
	s.invalidate.run(context.Background(), "category_created")
	return s.Get(category.ID)
}

// Update 更新分类，名称变化时重新生成 slug
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	previousSlug := category.Slug
	if err := s.apply(category, input); err != nil {
		return nil, err
	}
	if category.Slug != previousSlug {
		if err := s.ensureSlugFree(category.Slug, &id); err != nil {
			return nil, err
		}
	}
	category.Parent = nil
	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	s.invalidate.run(context.Background(), "category_updated")
	return s.Get(id)
}

// Delete 删除分类
func (s *CategoryService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	products, err := s.repo.CountProducts(id)
	if err != nil {
		return err
	}
	children, err := s.repo.CountChildren(id)
	if err != nil {
		return err
	}
	if products > 0 || children > 0 {
		return ErrCategoryInUse
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidate.run(context.Background(), "category_deleted")
	return nil
}

func (s *CategoryService) apply(category *models.Category, input CategoryInput) error {
	v := &validationCollector{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		v.check(name != "", "Category name is required")
		v.check(len([]rune(name)) <= 50, "Category name cannot exceed 50 characters")
		slug := GenerateSlug(name)
		v.check(name == "" || slug != "", "Category name must contain letters or digits")
		if name != category.Name {
			category.Name = name
			category.Slug = slug
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		v.check(len([]rune(description)) <= 500, "Description cannot exceed 500 characters")
		category.Description = description
	}
	if input.Image != nil {
		category.Image = *input.Image
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := v.err(); err != nil {
		return err
	}

	switch {
	case input.ClearParent:
		category.ParentID = nil
	case input.ParentID != nil:
		if category.ID != 0 && *input.ParentID == category.ID {
			return ErrInvalidParentCategory
		}
		parent, err := s.repo.GetByID(*input.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return ErrParentCategoryNotFound
		}
		parentID := parent.ID
		category.ParentID = &parentID
	}
	return nil
}

func (s *CategoryService) ensureSlugFree(slug string, excludeID *uint) error {
	count, err := s.repo.CountBySlug(slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateKeyError{Field: "slug"}
	}
	return nil
}
