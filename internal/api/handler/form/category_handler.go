package form

import (
	"github.com/gin-gonic/gin"

	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// CategoryHandler 表单分类处理器
type CategoryHandler struct {
	svc *formsvc.CategoryService
}

// NewCategoryHandler 创建表单分类处理器
func NewCategoryHandler(svc *formsvc.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// CreateCategory 创建分类
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input formsvc.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	category, err := h.svc.Create(c.Request.Context(), tenantID(c), input, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, category)
}

// GetCategory 获取分类详情
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.svc.Get(c.Request.Context(), c.Param("id"), tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, category)
}

// ListCategories 获取分类列表
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, total, err := h.svc.List(c.Request.Context(), tenantID(c), parseFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, categories, total)
}

// UpdateCategory 更新分类
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var patch formsvc.UpdateCategoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	category, err := h.svc.Update(c.Request.Context(), c.Param("id"), tenantID(c), patch, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, category)
}

// DeleteCategory 删除分类（软删除，存在启用类型时拒绝）
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), tenantID(c), userID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}
