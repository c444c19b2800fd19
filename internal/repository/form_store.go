package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
	"github.com/codesidh/chc-insight-crm-sub000/internal/service/form"
)

// FormStore form.Store 的 GORM 实现
// 所有查询按 tenant_id 过滤；InTransaction 内的读写共享同一事务
type FormStore struct {
	db *gorm.DB
}

// NewFormStore 创建表单存储
func NewFormStore(db *gorm.DB) *FormStore {
	return &FormStore{db: db}
}

// InTransaction 在单个事务内执行回调
func (s *FormStore) InTransaction(ctx context.Context, fn func(tx form.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FormStore{db: tx})
	})
}

// ---- 分类 ----

func (s *FormStore) GetCategory(ctx context.Context, tenantID, id string) (*model.FormCategory, error) {
	var category model.FormCategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *FormStore) GetCategoryByName(ctx context.Context, tenantID, name string) (*model.FormCategory, error) {
	var category model.FormCategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *FormStore) ListCategories(ctx context.Context, tenantID string, filter form.ListFilter) ([]model.FormCategory, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.FormCategory{}).
		Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []model.FormCategory
	err := query.Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Order("created_at DESC").
		Find(&categories).Error
	return categories, total, err
}

func (s *FormStore) CreateCategory(ctx context.Context, category *model.FormCategory) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *FormStore) UpdateCategory(ctx context.Context, category *model.FormCategory) error {
	return s.db.WithContext(ctx).Save(category).Error
}

func (s *FormStore) CountActiveTypes(ctx context.Context, tenantID, categoryID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.FormType{}).
		Where("tenant_id = ? AND category_id = ? AND status = ?", tenantID, categoryID, form.StatusActive).
		Count(&count).Error
	return count, err
}

// ---- 类型 ----

func (s *FormStore) GetType(ctx context.Context, tenantID, id string) (*model.FormType, error) {
	var formType model.FormType
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&formType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &formType, nil
}

func (s *FormStore) GetTypeByName(ctx context.Context, tenantID, categoryID, name string) (*model.FormType, error) {
	var formType model.FormType
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND category_id = ? AND name = ?", tenantID, categoryID, name).
		First(&formType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &formType, nil
}

func (s *FormStore) ListTypes(ctx context.Context, tenantID, categoryID string, filter form.ListFilter) ([]model.FormType, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.FormType{}).
		Where("tenant_id = ?", tenantID)
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var types []model.FormType
	err := query.Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Order("created_at DESC").
		Find(&types).Error
	return types, total, err
}

func (s *FormStore) CreateType(ctx context.Context, formType *model.FormType) error {
	return s.db.WithContext(ctx).Create(formType).Error
}

func (s *FormStore) UpdateType(ctx context.Context, formType *model.FormType) error {
	return s.db.WithContext(ctx).Save(formType).Error
}

func (s *FormStore) CountActiveTemplates(ctx context.Context, tenantID, typeID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.FormTemplate{}).
		Where("tenant_id = ? AND type_id = ? AND status = ?", tenantID, typeID, form.StatusActive).
		Count(&count).Error
	return count, err
}

// ---- 模板 ----

func (s *FormStore) GetTemplate(ctx context.Context, tenantID, id string) (*model.FormTemplate, error) {
	var template model.FormTemplate
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *FormStore) ListTemplates(ctx context.Context, tenantID, typeID string, filter form.ListFilter) ([]model.FormTemplate, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.FormTemplate{}).
		Where("tenant_id = ?", tenantID)
	if typeID != "" {
		query = query.Where("type_id = ?", typeID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templates []model.FormTemplate
	err := query.Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Order("name ASC, version DESC").
		Find(&templates).Error
	return templates, total, err
}

func (s *FormStore) CreateTemplate(ctx context.Context, template *model.FormTemplate) error {
	return s.db.WithContext(ctx).Create(template).Error
}

func (s *FormStore) UpdateTemplate(ctx context.Context, template *model.FormTemplate) error {
	return s.db.WithContext(ctx).Save(template).Error
}

// MaxTemplateVersion 查询 (type_id, name) 下的最大版本号并对命中行加锁
// 并发创建同名模板时：行锁串行化已有序列，首个版本的竞争由
// uk_type_name_version 唯一索引兜底（竞争失败方收到约束冲突）
func (s *FormStore) MaxTemplateVersion(ctx context.Context, tenantID, typeID, name string) (int, error) {
	var versions []int
	err := s.db.WithContext(ctx).Model(&model.FormTemplate{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND type_id = ? AND name = ?", tenantID, typeID, name).
		Pluck("version", &versions).Error
	if err != nil {
		return 0, err
	}
	max := 0
	for _, v := range versions {
		if v > max {
			max = v
		}
	}
	return max, nil
}

func (s *FormStore) LatestTemplate(ctx context.Context, tenantID, typeID, name string) (*model.FormTemplate, error) {
	var template model.FormTemplate
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND type_id = ? AND name = ?", tenantID, typeID, name).
		Order("version DESC").
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *FormStore) CountLiveInstances(ctx context.Context, tenantID, templateID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.FormInstance{}).
		Where("tenant_id = ? AND template_id = ? AND status IN ?", tenantID, templateID, form.LiveInstanceStatuses).
		Count(&count).Error
	return count, err
}

// ---- 实例 ----

func (s *FormStore) GetInstance(ctx context.Context, tenantID, id string) (*model.FormInstance, error) {
	var instance model.FormInstance
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (s *FormStore) ListInstances(ctx context.Context, tenantID, templateID string, filter form.ListFilter) ([]model.FormInstance, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.FormInstance{}).
		Where("tenant_id = ?", tenantID)
	if templateID != "" {
		query = query.Where("template_id = ?", templateID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("instance_number LIKE ?", "%"+filter.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var instances []model.FormInstance
	err := query.Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Order("created_at DESC").
		Find(&instances).Error
	return instances, total, err
}

func (s *FormStore) CreateInstance(ctx context.Context, instance *model.FormInstance) error {
	return s.db.WithContext(ctx).Create(instance).Error
}

func (s *FormStore) UpdateInstance(ctx context.Context, instance *model.FormInstance) error {
	return s.db.WithContext(ctx).Save(instance).Error
}

// FindLiveInstance 查找同模板下的在途实例
// member/provider 提供哪个就按哪个匹配（两者都有时是 AND，不是组合键）
// 加行锁使重复检测与插入串行化：无命中时间隙锁挡住并发事务的同键插入，
// 避免两个快照读都看不到对方、双双通过检测
func (s *FormStore) FindLiveInstance(ctx context.Context, tenantID, templateID, memberID, providerID string) (*model.FormInstance, error) {
	query := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND template_id = ? AND status IN ?", tenantID, templateID, form.LiveInstanceStatuses)
	if memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if providerID != "" {
		query = query.Where("provider_id = ?", providerID)
	}

	var instance model.FormInstance
	err := query.First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}
