// Package form 表单层级管理的 HTTP 处理器
package form

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// tenantID 从上下文取租户标识（IdentityMiddleware 保证存在）
func tenantID(c *gin.Context) string {
	if v, exists := c.Get("tenant_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userID 从上下文取当前用户
func userID(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// parseFilter 解析分页/过滤参数
func parseFilter(c *gin.Context) formsvc.ListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return formsvc.ListFilter{
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
}

// respondOK 成功响应
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// respondList 带总数的列表响应
func respondList(c *gin.Context, data interface{}, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
		"total":   total,
	})
}

// respondError 将引擎错误分类映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	fe, ok := formsvc.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "服务器内部错误",
			"error":   err.Error(),
		})
		return
	}

	var status int
	switch fe.Kind {
	case formsvc.KindNotFound:
		status = http.StatusNotFound
	case formsvc.KindConflict:
		status = http.StatusConflict
	case formsvc.KindIntegrity:
		status = http.StatusUnprocessableEntity
	case formsvc.KindValidation:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"code":    status,
		"message": fe.Message,
		"error":   fe.Code,
	})
}

// respondBadRequest 请求参数错误
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": "请求参数错误",
		"error":   err.Error(),
	})
}
