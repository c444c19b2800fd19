package form

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// TypeService 表单类型管理
type TypeService struct {
	store Store
	clock Clock
}

// NewTypeService 创建类型服务
func NewTypeService(store Store, clock Clock) *TypeService {
	return &TypeService{store: store, clock: clock}
}

// CreateTypeInput 创建类型入参
type CreateTypeInput struct {
	CategoryID    string               `json:"category_id" binding:"required"`
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	BusinessRules []model.BusinessRule `json:"business_rules"`
}

// UpdateTypePatch 更新类型入参，nil 字段不修改
type UpdateTypePatch struct {
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	BusinessRules *[]model.BusinessRule `json:"business_rules"`
	Status        *string               `json:"status"`
}

// Create 创建类型；父分类必须存在，同一分类下名称唯一
func (s *TypeService) Create(ctx context.Context, tenantID string, input CreateTypeInput, actingUserID string) (*model.FormType, error) {
	if input.Name == "" {
		return nil, ValidationError(CodeValidationFailed, "类型名称不能为空")
	}
	if input.CategoryID == "" {
		return nil, ValidationError(CodeValidationFailed, "必须指定所属分类")
	}

	rulesJSON, err := json.Marshal(input.BusinessRules)
	if err != nil {
		return nil, ValidationError(CodeValidationFailed, "业务规则配置无法序列化")
	}

	now := s.clock.Now()
	formType := &model.FormType{
		ID:            uuid.New().String(),
		CategoryID:    input.CategoryID,
		TenantID:      tenantID,
		Name:          input.Name,
		Description:   input.Description,
		BusinessRules: datatypes.JSON(rulesJSON),
		Status:        StatusActive,
		CreatedBy:     actingUserID,
		UpdatedBy:     actingUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		category, err := tx.GetCategory(ctx, tenantID, input.CategoryID)
		if err != nil {
			return TransientError(err)
		}
		if category == nil {
			return NotFoundError(CodeCategoryNotFound, "所属分类不存在")
		}

		existing, err := tx.GetTypeByName(ctx, tenantID, input.CategoryID, input.Name)
		if err != nil {
			return TransientError(err)
		}
		if existing != nil {
			return ConflictError(CodeTypeExists, "类型 %s 在该分类下已存在", input.Name)
		}
		if err := tx.CreateType(ctx, formType); err != nil {
			return TransientError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return formType, nil
}

// Update 更新类型
func (s *TypeService) Update(ctx context.Context, id, tenantID string, patch UpdateTypePatch, actingUserID string) (*model.FormType, error) {
	if patch.Status != nil && *patch.Status != StatusActive && *patch.Status != StatusInactive {
		return nil, ValidationError(CodeValidationFailed, "非法的类型状态: %s", *patch.Status)
	}

	var updated *model.FormType
	err := s.store.InTransaction(ctx, func(tx Store) error {
		formType, err := tx.GetType(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if formType == nil {
			return NotFoundError(CodeTypeNotFound, "类型不存在")
		}

		if patch.Name != nil && *patch.Name != formType.Name {
			existing, err := tx.GetTypeByName(ctx, tenantID, formType.CategoryID, *patch.Name)
			if err != nil {
				return TransientError(err)
			}
			if existing != nil {
				return ConflictError(CodeTypeExists, "类型 %s 在该分类下已存在", *patch.Name)
			}
			formType.Name = *patch.Name
		}
		if patch.Description != nil {
			formType.Description = *patch.Description
		}
		if patch.BusinessRules != nil {
			rulesJSON, err := json.Marshal(*patch.BusinessRules)
			if err != nil {
				return ValidationError(CodeValidationFailed, "业务规则配置无法序列化")
			}
			formType.BusinessRules = datatypes.JSON(rulesJSON)
		}
		if patch.Status != nil {
			formType.Status = *patch.Status
		}
		formType.UpdatedBy = actingUserID
		formType.UpdatedAt = s.clock.Now()

		if err := tx.UpdateType(ctx, formType); err != nil {
			return TransientError(err)
		}
		updated = formType
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 软删除类型；仍有 active 模板时拒绝
func (s *TypeService) Delete(ctx context.Context, id, tenantID, actingUserID string) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		formType, err := tx.GetType(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if formType == nil {
			return NotFoundError(CodeTypeNotFound, "类型不存在")
		}

		activeTemplates, err := tx.CountActiveTemplates(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if activeTemplates > 0 {
			return IntegrityError(CodeTypeHasActiveTemplates, "类型下仍有 %d 个启用中的模板，无法删除", activeTemplates)
		}

		formType.Status = StatusInactive
		formType.UpdatedBy = actingUserID
		formType.UpdatedAt = s.clock.Now()
		if err := tx.UpdateType(ctx, formType); err != nil {
			return TransientError(err)
		}
		return nil
	})
}

// Get 查询类型详情
func (s *TypeService) Get(ctx context.Context, id, tenantID string) (*model.FormType, error) {
	formType, err := s.store.GetType(ctx, tenantID, id)
	if err != nil {
		return nil, TransientError(err)
	}
	if formType == nil {
		return nil, NotFoundError(CodeTypeNotFound, "类型不存在")
	}
	return formType, nil
}

// List 分页查询类型，categoryID 为空时查询租户下全部
func (s *TypeService) List(ctx context.Context, tenantID, categoryID string, filter ListFilter) ([]model.FormType, int64, error) {
	filter.Normalize()
	types, total, err := s.store.ListTypes(ctx, tenantID, categoryID, filter)
	if err != nil {
		return nil, 0, TransientError(err)
	}
	return types, total, nil
}
