package app

import (
	formsvc "github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
	pkgredis "github.com/codesidh/chc-insight-crm-sub000/pkg/redis"
)

// Services 包含所有 Service 实例
type Services struct {
	Category *formsvc.CategoryService
	Type     *formsvc.TypeService
	Template *formsvc.TemplateService
	Instance *formsvc.InstanceService
}

// InitializeServices 初始化所有 Service
func InitializeServices(repos *Repositories) *Services {
	clock := formsvc.SystemClock()

	return &Services{
		Category: formsvc.NewCategoryService(repos.FormStore, clock),
		Type:     formsvc.NewTypeService(repos.FormStore, clock),
		Template: formsvc.NewTemplateService(repos.FormStore, clock, pkgredis.GetClient()),
		Instance: formsvc.NewInstanceService(repos.FormStore, clock, repos.Directory),
	}
}
