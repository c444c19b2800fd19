package app

import (
	formhandler "github.com/codesidh/chc-insight-crm-sub000/internal/api/handler/form"
)

// Handlers 包含所有 Handler 实例
type Handlers struct {
	Category *formhandler.CategoryHandler
	Type     *formhandler.TypeHandler
	Template *formhandler.TemplateHandler
	Instance *formhandler.InstanceHandler
}

// InitializeHandlers 初始化所有 Handler
func InitializeHandlers(services *Services) *Handlers {
	return &Handlers{
		Category: formhandler.NewCategoryHandler(services.Category),
		Type:     formhandler.NewTypeHandler(services.Type),
		Template: formhandler.NewTemplateHandler(services.Template),
		Instance: formhandler.NewInstanceHandler(services.Instance),
	}
}
