package form

import (
	"context"
	"strings"
	"time"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// memStore Store 的内存实现，供服务层测试使用
// 语义对齐数据库实现：查询不到返回 (nil, nil)，列表按过滤条件匹配
type memStore struct {
	categories map[string]*model.FormCategory
	types      map[string]*model.FormType
	templates  map[string]*model.FormTemplate
	instances  map[string]*model.FormInstance
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[string]*model.FormCategory),
		types:      make(map[string]*model.FormType),
		templates:  make(map[string]*model.FormTemplate),
		instances:  make(map[string]*model.FormInstance),
	}
}

func (s *memStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}

func (s *memStore) GetCategory(ctx context.Context, tenantID, id string) (*model.FormCategory, error) {
	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (s *memStore) GetCategoryByName(ctx context.Context, tenantID, name string) (*model.FormCategory, error) {
	for _, c := range s.categories {
		if c.TenantID == tenantID && c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListCategories(ctx context.Context, tenantID string, filter ListFilter) ([]model.FormCategory, int64, error) {
	var result []model.FormCategory
	for _, c := range s.categories {
		if c.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(c.Name, filter.Keyword) {
			continue
		}
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (s *memStore) CreateCategory(ctx context.Context, category *model.FormCategory) error {
	clone := *category
	s.categories[category.ID] = &clone
	return nil
}

func (s *memStore) UpdateCategory(ctx context.Context, category *model.FormCategory) error {
	clone := *category
	s.categories[category.ID] = &clone
	return nil
}

func (s *memStore) CountActiveTypes(ctx context.Context, tenantID, categoryID string) (int64, error) {
	var count int64
	for _, t := range s.types {
		if t.TenantID == tenantID && t.CategoryID == categoryID && t.Status == StatusActive {
			count++
		}
	}
	return count, nil
}

func (s *memStore) GetType(ctx context.Context, tenantID, id string) (*model.FormType, error) {
	t, ok := s.types[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (s *memStore) GetTypeByName(ctx context.Context, tenantID, categoryID, name string) (*model.FormType, error) {
	for _, t := range s.types {
		if t.TenantID == tenantID && t.CategoryID == categoryID && t.Name == name {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListTypes(ctx context.Context, tenantID, categoryID string, filter ListFilter) ([]model.FormType, int64, error) {
	var result []model.FormType
	for _, t := range s.types {
		if t.TenantID != tenantID {
			continue
		}
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(t.Name, filter.Keyword) {
			continue
		}
		result = append(result, *t)
	}
	return result, int64(len(result)), nil
}

func (s *memStore) CreateType(ctx context.Context, formType *model.FormType) error {
	clone := *formType
	s.types[formType.ID] = &clone
	return nil
}

func (s *memStore) UpdateType(ctx context.Context, formType *model.FormType) error {
	clone := *formType
	s.types[formType.ID] = &clone
	return nil
}

func (s *memStore) CountActiveTemplates(ctx context.Context, tenantID, typeID string) (int64, error) {
	var count int64
	for _, t := range s.templates {
		if t.TenantID == tenantID && t.TypeID == typeID && t.Status == StatusActive {
			count++
		}
	}
	return count, nil
}

func (s *memStore) GetTemplate(ctx context.Context, tenantID, id string) (*model.FormTemplate, error) {
	t, ok := s.templates[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (s *memStore) ListTemplates(ctx context.Context, tenantID, typeID string, filter ListFilter) ([]model.FormTemplate, int64, error) {
	var result []model.FormTemplate
	for _, t := range s.templates {
		if t.TenantID != tenantID {
			continue
		}
		if typeID != "" && t.TypeID != typeID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(t.Name, filter.Keyword) {
			continue
		}
		result = append(result, *t)
	}
	return result, int64(len(result)), nil
}

func (s *memStore) CreateTemplate(ctx context.Context, template *model.FormTemplate) error {
	clone := *template
	s.templates[template.ID] = &clone
	return nil
}

func (s *memStore) UpdateTemplate(ctx context.Context, template *model.FormTemplate) error {
	clone := *template
	s.templates[template.ID] = &clone
	return nil
}

func (s *memStore) MaxTemplateVersion(ctx context.Context, tenantID, typeID, name string) (int, error) {
	max := 0
	for _, t := range s.templates {
		if t.TenantID == tenantID && t.TypeID == typeID && t.Name == name && t.Version > max {
			max = t.Version
		}
	}
	return max, nil
}

func (s *memStore) LatestTemplate(ctx context.Context, tenantID, typeID, name string) (*model.FormTemplate, error) {
	var latest *model.FormTemplate
	for _, t := range s.templates {
		if t.TenantID == tenantID && t.TypeID == typeID && t.Name == name {
			if latest == nil || t.Version > latest.Version {
				latest = t
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *memStore) CountLiveInstances(ctx context.Context, tenantID, templateID string) (int64, error) {
	var count int64
	for _, i := range s.instances {
		if i.TenantID == tenantID && i.TemplateID == templateID && IsLiveStatus(i.Status) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) GetInstance(ctx context.Context, tenantID, id string) (*model.FormInstance, error) {
	i, ok := s.instances[id]
	if !ok || i.TenantID != tenantID {
		return nil, nil
	}
	clone := *i
	return &clone, nil
}

func (s *memStore) ListInstances(ctx context.Context, tenantID, templateID string, filter ListFilter) ([]model.FormInstance, int64, error) {
	var result []model.FormInstance
	for _, i := range s.instances {
		if i.TenantID != tenantID {
			continue
		}
		if templateID != "" && i.TemplateID != templateID {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(i.InstanceNumber, filter.Keyword) {
			continue
		}
		result = append(result, *i)
	}
	return result, int64(len(result)), nil
}

func (s *memStore) CreateInstance(ctx context.Context, instance *model.FormInstance) error {
	clone := *instance
	s.instances[instance.ID] = &clone
	return nil
}

func (s *memStore) UpdateInstance(ctx context.Context, instance *model.FormInstance) error {
	clone := *instance
	s.instances[instance.ID] = &clone
	return nil
}

func (s *memStore) FindLiveInstance(ctx context.Context, tenantID, templateID, memberID, providerID string) (*model.FormInstance, error) {
	for _, i := range s.instances {
		if i.TenantID != tenantID || i.TemplateID != templateID || !IsLiveStatus(i.Status) {
			continue
		}
		if memberID != "" && i.MemberID != memberID {
			continue
		}
		if providerID != "" && i.ProviderID != providerID {
			continue
		}
		clone := *i
		return &clone, nil
	}
	return nil, nil
}

// fixedClock 固定时间源
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// fakeDirectory 固定字段表的目录端口
type fakeDirectory struct {
	members   map[string]map[string]string
	providers map[string]map[string]string
}

func (d *fakeDirectory) MemberFields(ctx context.Context, tenantID, memberID string) (map[string]string, error) {
	return d.members[memberID], nil
}

func (d *fakeDirectory) ProviderFields(ctx context.Context, tenantID, providerID string) (map[string]string, error) {
	return d.providers[providerID], nil
}
