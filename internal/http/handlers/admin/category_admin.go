package admin

import (
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryRequest 分类创建/更新请求
type CategoryRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Image       *models.Image `json:"image"`
	ParentID    *uint         `json:"parentCategory"`
	ClearParent bool          `json:"clearParent"`
	IsActive    *bool         `json:"isActive"`
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		ParentID:    r.ParentID,
		ClearParent: r.ClearParent,
		IsActive:    r.IsActive,
	}
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Create(req.toInput())
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Created(c, "Category created successfully", gin.H{"category": category})
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Update(id, req.toInput())
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Category updated successfully", gin.H{"category": category})
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Category deleted successfully", nil)
}
