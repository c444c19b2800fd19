package form

import (
	"context"
	"time"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// ListFilter 列表查询的分页/过滤参数
type ListFilter struct {
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// Normalize 纠正非法分页参数
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
}

// Store 持久化端口。实现方保证：InTransaction 内的读写在同一事务中一致，
// MaxTemplateVersion 对 (type_id, name) 行加锁，使版本分配与插入串行化。
// 查询方法在记录不存在时返回 (nil, nil)，基础设施错误才返回 error。
type Store interface {
	InTransaction(ctx context.Context, fn func(tx Store) error) error

	// 分类
	GetCategory(ctx context.Context, tenantID, id string) (*model.FormCategory, error)
	GetCategoryByName(ctx context.Context, tenantID, name string) (*model.FormCategory, error)
	ListCategories(ctx context.Context, tenantID string, filter ListFilter) ([]model.FormCategory, int64, error)
	CreateCategory(ctx context.Context, category *model.FormCategory) error
	UpdateCategory(ctx context.Context, category *model.FormCategory) error
	CountActiveTypes(ctx context.Context, tenantID, categoryID string) (int64, error)

	// 类型
	GetType(ctx context.Context, tenantID, id string) (*model.FormType, error)
	GetTypeByName(ctx context.Context, tenantID, categoryID, name string) (*model.FormType, error)
	ListTypes(ctx context.Context, tenantID, categoryID string, filter ListFilter) ([]model.FormType, int64, error)
	CreateType(ctx context.Context, formType *model.FormType) error
	UpdateType(ctx context.Context, formType *model.FormType) error
	CountActiveTemplates(ctx context.Context, tenantID, typeID string) (int64, error)

	// 模板
	GetTemplate(ctx context.Context, tenantID, id string) (*model.FormTemplate, error)
	ListTemplates(ctx context.Context, tenantID, typeID string, filter ListFilter) ([]model.FormTemplate, int64, error)
	CreateTemplate(ctx context.Context, template *model.FormTemplate) error
	UpdateTemplate(ctx context.Context, template *model.FormTemplate) error
	MaxTemplateVersion(ctx context.Context, tenantID, typeID, name string) (int, error)
	LatestTemplate(ctx context.Context, tenantID, typeID, name string) (*model.FormTemplate, error)
	CountLiveInstances(ctx context.Context, tenantID, templateID string) (int64, error)

	// 实例
	GetInstance(ctx context.Context, tenantID, id string) (*model.FormInstance, error)
	ListInstances(ctx context.Context, tenantID, templateID string, filter ListFilter) ([]model.FormInstance, int64, error)
	CreateInstance(ctx context.Context, instance *model.FormInstance) error
	UpdateInstance(ctx context.Context, instance *model.FormInstance) error
	FindLiveInstance(ctx context.Context, tenantID, templateID, memberID, providerID string) (*model.FormInstance, error)
}

// Directory 成员/服务方目录查询端口，返回可用于预填充的字段表
// 记录不存在时返回 (nil, nil)，不视为错误
type Directory interface {
	MemberFields(ctx context.Context, tenantID, memberID string) (map[string]string, error)
	ProviderFields(ctx context.Context, tenantID, providerID string) (map[string]string, error)
}

// Clock 时间源端口，便于测试注入
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 真实时间源
func SystemClock() Clock { return systemClock{} }
