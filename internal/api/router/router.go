package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	formhandler "github.com/codesidh/chc-insight-crm-sub000/internal/api/handler/form"
	"github.com/codesidh/chc-insight-crm-sub000/internal/api/middleware"
)

// Setup 初始化路由
func Setup(
	categoryHandler *formhandler.CategoryHandler,
	typeHandler *formhandler.TypeHandler,
	templateHandler *formhandler.TemplateHandler,
	instanceHandler *formhandler.InstanceHandler,
) *gin.Engine {
	r := gin.New()

	// Panic 恢复（带日志）
	r.Use(middleware.RecoveryMiddleware())

	// 请求日志
	r.Use(gin.Logger())

	// CORS
	r.Use(middleware.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware())
	{
		// 表单分类
		categories := api.Group("/form-categories")
		{
			categories.POST("", categoryHandler.CreateCategory)
			categories.GET("", categoryHandler.ListCategories)
			categories.GET("/:id", categoryHandler.GetCategory)
			categories.PUT("/:id", categoryHandler.UpdateCategory)
			categories.DELETE("/:id", categoryHandler.DeleteCategory)
		}

		// 表单类型
		types := api.Group("/form-types")
		{
			types.POST("", typeHandler.CreateType)
			types.GET("", typeHandler.ListTypes)
			types.GET("/:id", typeHandler.GetType)
			types.PUT("/:id", typeHandler.UpdateType)
			types.DELETE("/:id", typeHandler.DeleteType)
		}

		// 表单模板
		templates := api.Group("/form-templates")
		{
			templates.POST("", templateHandler.CreateTemplate)
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/latest", templateHandler.GetLatestTemplate)
			templates.GET("/:id", templateHandler.GetTemplate)
			templates.PUT("/:id", templateHandler.UpdateTemplate)
			templates.DELETE("/:id", templateHandler.DeleteTemplate)
			templates.POST("/:id/copy", templateHandler.CopyTemplate)
		}

		// 表单实例
		instances := api.Group("/form-instances")
		{
			instances.POST("", instanceHandler.CreateInstance)
			instances.GET("", instanceHandler.ListInstances)
			instances.GET("/:id", instanceHandler.GetInstance)
			instances.PUT("/:id", instanceHandler.UpdateInstance)
			instances.DELETE("/:id", instanceHandler.DeleteInstance)
		}
	}

	return r
}
