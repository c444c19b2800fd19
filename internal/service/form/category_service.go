package form

import (
	"context"

	"github.com/google/uuid"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// CategoryService 表单分类管理
type CategoryService struct {
	store Store
	clock Clock
}

// NewCategoryService 创建分类服务
func NewCategoryService(store Store, clock Clock) *CategoryService {
	return &CategoryService{store: store, clock: clock}
}

// CreateCategoryInput 创建分类入参
type CreateCategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateCategoryPatch 更新分类入参，nil 字段不修改
type UpdateCategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Create 创建分类，同一租户下名称唯一
func (s *CategoryService) Create(ctx context.Context, tenantID string, input CreateCategoryInput, actingUserID string) (*model.FormCategory, error) {
	if input.Name == "" {
		return nil, ValidationError(CodeValidationFailed, "分类名称不能为空")
	}

	now := s.clock.Now()
	category := &model.FormCategory{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		Status:      StatusActive,
		CreatedBy:   actingUserID,
		UpdatedBy:   actingUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.InTransaction(ctx, func(tx Store) error {
		existing, err := tx.GetCategoryByName(ctx, tenantID, input.Name)
		if err != nil {
			return TransientError(err)
		}
		if existing != nil {
			return ConflictError(CodeCategoryExists, "分类 %s 已存在", input.Name)
		}
		if err := tx.CreateCategory(ctx, category); err != nil {
			return TransientError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id, tenantID string, patch UpdateCategoryPatch, actingUserID string) (*model.FormCategory, error) {
	if patch.Status != nil && *patch.Status != StatusActive && *patch.Status != StatusInactive {
		return nil, ValidationError(CodeValidationFailed, "非法的分类状态: %s", *patch.Status)
	}

	var updated *model.FormCategory
	err := s.store.InTransaction(ctx, func(tx Store) error {
		category, err := tx.GetCategory(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if category == nil {
			return NotFoundError(CodeCategoryNotFound, "分类不存在")
		}

		if patch.Name != nil && *patch.Name != category.Name {
			existing, err := tx.GetCategoryByName(ctx, tenantID, *patch.Name)
			if err != nil {
				return TransientError(err)
			}
			if existing != nil {
				return ConflictError(CodeCategoryExists, "分类 %s 已存在", *patch.Name)
			}
			category.Name = *patch.Name
		}
		if patch.Description != nil {
			category.Description = *patch.Description
		}
		if patch.Status != nil {
			category.Status = *patch.Status
		}
		category.UpdatedBy = actingUserID
		category.UpdatedAt = s.clock.Now()

		if err := tx.UpdateCategory(ctx, category); err != nil {
			return TransientError(err)
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 软删除分类；仍有 active 类型时拒绝
func (s *CategoryService) Delete(ctx context.Context, id, tenantID, actingUserID string) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		category, err := tx.GetCategory(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if category == nil {
			return NotFoundError(CodeCategoryNotFound, "分类不存在")
		}

		activeTypes, err := tx.CountActiveTypes(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if activeTypes > 0 {
			return IntegrityError(CodeCategoryHasActiveTypes, "分类下仍有 %d 个启用中的类型，无法删除", activeTypes)
		}

		category.Status = StatusInactive
		category.UpdatedBy = actingUserID
		category.UpdatedAt = s.clock.Now()
		if err := tx.UpdateCategory(ctx, category); err != nil {
			return TransientError(err)
		}
		return nil
	})
}

// Get 查询分类详情
func (s *CategoryService) Get(ctx context.Context, id, tenantID string) (*model.FormCategory, error) {
	category, err := s.store.GetCategory(ctx, tenantID, id)
	if err != nil {
		return nil, TransientError(err)
	}
	if category == nil {
		return nil, NotFoundError(CodeCategoryNotFound, "分类不存在")
	}
	return category, nil
}

// List 分页查询分类
func (s *CategoryService) List(ctx context.Context, tenantID string, filter ListFilter) ([]model.FormCategory, int64, error) {
	filter.Normalize()
	categories, total, err := s.store.ListCategories(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, TransientError(err)
	}
	return categories, total, nil
}
