package form

import (
	"github.com/gin-gonic/gin"

	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// TemplateHandler 表单模板处理器
type TemplateHandler struct {
	svc *formsvc.TemplateService
}

// NewTemplateHandler 创建表单模板处理器
func NewTemplateHandler(svc *formsvc.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// CreateTemplate 创建模板，版本号按 (类型, 名称) 自动递增
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var input formsvc.CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	template, err := h.svc.Create(c.Request.Context(), tenantID(c), input, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// copyTemplateRequest 复制模板入参
type copyTemplateRequest struct {
	Name   string `json:"name"`
	TypeID string `json:"type_id"`
}

// CopyTemplate 复制模板为新模板（独立版本序列）
func (h *TemplateHandler) CopyTemplate(c *gin.Context) {
	var req copyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	template, err := h.svc.Copy(c.Request.Context(), c.Param("id"), tenantID(c), req.Name, req.TypeID, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// GetTemplate 获取模板详情
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	template, err := h.svc.Get(c.Request.Context(), c.Param("id"), tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// GetLatestTemplate 获取某类型下指定名称的最新版本
func (h *TemplateHandler) GetLatestTemplate(c *gin.Context) {
	template, err := h.svc.GetLatestVersion(c.Request.Context(), c.Query("name"), c.Query("type_id"), tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// ListTemplates 获取模板列表，可按类型过滤
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, total, err := h.svc.List(c.Request.Context(), tenantID(c), c.Query("type_id"), parseFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, templates, total)
}

// UpdateTemplate 更新模板
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var patch formsvc.UpdateTemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	template, err := h.svc.Update(c.Request.Context(), c.Param("id"), tenantID(c), patch, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// DeleteTemplate 删除模板（软删除，存在进行中实例时拒绝）
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), tenantID(c), userID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}
