package form

import (
	"github.com/gin-gonic/gin"

	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// InstanceHandler 表单实例处理器
type InstanceHandler struct {
	svc *formsvc.InstanceService
}

// NewInstanceHandler 创建表单实例处理器
func NewInstanceHandler(svc *formsvc.InstanceService) *InstanceHandler {
	return &InstanceHandler{svc: svc}
}

// CreateInstance 创建实例，初始状态为草稿
func (h *InstanceHandler) CreateInstance(c *gin.Context) {
	var input formsvc.CreateInstanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	instance, err := h.svc.Create(c.Request.Context(), tenantID(c), input, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, instance)
}

// GetInstance 获取实例详情
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	instance, err := h.svc.Get(c.Request.Context(), c.Param("id"), tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, instance)
}

// ListInstances 获取实例列表，可按模板过滤
func (h *InstanceHandler) ListInstances(c *gin.Context) {
	instances, total, err := h.svc.List(c.Request.Context(), tenantID(c), c.Query("template_id"), parseFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, instances, total)
}

// UpdateInstance 更新实例：增量合并答卷，携带 status 时走状态机流转
func (h *InstanceHandler) UpdateInstance(c *gin.Context) {
	var patch formsvc.UpdateInstancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	instance, err := h.svc.Update(c.Request.Context(), c.Param("id"), tenantID(c), patch, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, instance)
}

// DeleteInstance 删除实例：仅草稿/已驳回可删，落库为 cancelled
func (h *InstanceHandler) DeleteInstance(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), tenantID(c), userID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}
