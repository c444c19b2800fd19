package form

import (
	"github.com/gin-gonic/gin"

	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// TypeHandler 表单类型处理器
type TypeHandler struct {
	svc *formsvc.TypeService
}

// NewTypeHandler 创建表单类型处理器
func NewTypeHandler(svc *formsvc.TypeService) *TypeHandler {
	return &TypeHandler{svc: svc}
}

// CreateType 创建类型
func (h *TypeHandler) CreateType(c *gin.Context) {
	var input formsvc.CreateTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	formType, err := h.svc.Create(c.Request.Context(), tenantID(c), input, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, formType)
}

// GetType 获取类型详情
func (h *TypeHandler) GetType(c *gin.Context) {
	formType, err := h.svc.Get(c.Request.Context(), c.Param("id"), tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, formType)
}

// ListTypes 获取类型列表，可按分类过滤
func (h *TypeHandler) ListTypes(c *gin.Context) {
	types, total, err := h.svc.List(c.Request.Context(), tenantID(c), c.Query("category_id"), parseFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, types, total)
}

// UpdateType 更新类型
func (h *TypeHandler) UpdateType(c *gin.Context) {
	var patch formsvc.UpdateTypePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	formType, err := h.svc.Update(c.Request.Context(), c.Param("id"), tenantID(c), patch, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, formType)
}

// DeleteType 删除类型（软删除，存在启用模板时拒绝）
func (h *TypeHandler) DeleteType(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), tenantID(c), userID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}
