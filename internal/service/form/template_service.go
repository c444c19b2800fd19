package form

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/distributed"
)

// versionLockExpiry 版本分配锁的过期时间
const versionLockExpiry = 10 * time.Second

// TemplateService 表单模板管理：创建、复制、版本分配、最新版本查询
// 版本号按 (type_id, name) 单调递增；分配与插入在事务内串行化，
// 多实例部署时额外用 Redis 锁收窄竞争窗口（Redis 不可用时优雅降级）
type TemplateService struct {
	store Store
	clock Clock
	redis *goredis.Client
}

// NewTemplateService 创建模板服务，redis 可为 nil（单机模式）
func NewTemplateService(store Store, clock Clock, redis *goredis.Client) *TemplateService {
	return &TemplateService{store: store, clock: clock, redis: redis}
}

// CreateTemplateInput 创建模板入参
type CreateTemplateInput struct {
	TypeID              string                 `json:"type_id" binding:"required"`
	Name                string                 `json:"name" binding:"required"`
	Questions           []model.Question       `json:"questions"`
	Workflow            *model.WorkflowConfig  `json:"workflow"`
	DueDateCalculation  *model.DueDateRule     `json:"due_date_calculation"`
	ReminderFrequency   string                 `json:"reminder_frequency"`
	AutoAssignmentRules []model.AssignmentRule `json:"auto_assignment_rules"`
	EffectiveDate       *time.Time             `json:"effective_date"`
	ExpirationDate      *time.Time             `json:"expiration_date"`
}

// UpdateTemplatePatch 更新模板入参，nil 字段不修改
// 模板被实例引用后仍可编辑：实例只存模板引用，后续渲染跟随最新配置
type UpdateTemplatePatch struct {
	Questions           *[]model.Question       `json:"questions"`
	Workflow            *model.WorkflowConfig   `json:"workflow"`
	DueDateCalculation  *model.DueDateRule      `json:"due_date_calculation"`
	ReminderFrequency   *string                 `json:"reminder_frequency"`
	AutoAssignmentRules *[]model.AssignmentRule `json:"auto_assignment_rules"`
	Status              *string                 `json:"status"`
	EffectiveDate       *time.Time              `json:"effective_date"`
	ExpirationDate      *time.Time              `json:"expiration_date"`
}

// Create 创建模板；父类型必须存在，否则 TYPE_NOT_FOUND
// 新版本号 = 同 (type_id, name) 下最大版本 + 1，没有则为 1
func (s *TemplateService) Create(ctx context.Context, tenantID string, input CreateTemplateInput, actingUserID string) (*model.FormTemplate, error) {
	if input.Name == "" {
		return nil, ValidationError(CodeValidationFailed, "模板名称不能为空")
	}
	if input.TypeID == "" {
		return nil, ValidationError(CodeValidationFailed, "必须指定所属类型")
	}
	if err := validateQuestions(input.Questions); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	effective := now
	if input.EffectiveDate != nil {
		effective = *input.EffectiveDate
	}
	if input.ExpirationDate != nil && !input.ExpirationDate.After(effective) {
		return nil, ValidationError(CodeValidationFailed, "失效时间必须晚于生效时间")
	}

	template := &model.FormTemplate{
		ID:                uuid.New().String(),
		TypeID:            input.TypeID,
		TenantID:          tenantID,
		Name:              input.Name,
		Status:            StatusActive,
		ReminderFrequency: input.ReminderFrequency,
		EffectiveDate:     effective,
		ExpirationDate:    input.ExpirationDate,
		CreatedBy:         actingUserID,
		UpdatedBy:         actingUserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := marshalTemplateConfig(template, input.Questions, input.Workflow, input.DueDateCalculation, input.AutoAssignmentRules); err != nil {
		return nil, err
	}

	unlock := s.lockVersionSequence(input.TypeID, input.Name)
	defer unlock()

	err := s.store.InTransaction(ctx, func(tx Store) error {
		formType, err := tx.GetType(ctx, tenantID, input.TypeID)
		if err != nil {
			return TransientError(err)
		}
		if formType == nil {
			return NotFoundError(CodeTypeNotFound, "所属类型不存在")
		}

		maxVersion, err := tx.MaxTemplateVersion(ctx, tenantID, input.TypeID, input.Name)
		if err != nil {
			return TransientError(err)
		}
		template.Version = maxVersion + 1

		if err := tx.CreateTemplate(ctx, template); err != nil {
			return TransientError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// Copy 复制模板：新名称默认 "<原名> (Copy)"，目标类型默认原类型，
// 副本总是 active 且生效时间为当前时间，失效时间原样带过来，
// 版本号在副本自己的 (type_id, name) 序列下独立分配
func (s *TemplateService) Copy(ctx context.Context, sourceID, tenantID, newName, targetTypeID, actingUserID string) (*model.FormTemplate, error) {
	source, err := s.store.GetTemplate(ctx, tenantID, sourceID)
	if err != nil {
		return nil, TransientError(err)
	}
	if source == nil {
		return nil, NotFoundError(CodeTemplateNotFound, "源模板不存在")
	}

	if newName == "" {
		newName = fmt.Sprintf("%s (Copy)", source.Name)
	}
	if targetTypeID == "" {
		targetTypeID = source.TypeID
	}

	now := s.clock.Now()
	copied := &model.FormTemplate{
		ID:                  uuid.New().String(),
		TypeID:              targetTypeID,
		TenantID:            tenantID,
		Name:                newName,
		Questions:           source.Questions,
		Workflow:            source.Workflow,
		DueDateCalculation:  source.DueDateCalculation,
		ReminderFrequency:   source.ReminderFrequency,
		AutoAssignmentRules: source.AutoAssignmentRules,
		Status:              StatusActive,
		EffectiveDate:       now,
		ExpirationDate:      source.ExpirationDate,
		CreatedBy:           actingUserID,
		UpdatedBy:           actingUserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	unlock := s.lockVersionSequence(targetTypeID, newName)
	defer unlock()

	err = s.store.InTransaction(ctx, func(tx Store) error {
		formType, err := tx.GetType(ctx, tenantID, targetTypeID)
		if err != nil {
			return TransientError(err)
		}
		if formType == nil {
			return NotFoundError(CodeTypeNotFound, "目标类型不存在")
		}

		maxVersion, err := tx.MaxTemplateVersion(ctx, tenantID, targetTypeID, newName)
		if err != nil {
			return TransientError(err)
		}
		copied.Version = maxVersion + 1

		if err := tx.CreateTemplate(ctx, copied); err != nil {
			return TransientError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// Update 更新模板配置
func (s *TemplateService) Update(ctx context.Context, id, tenantID string, patch UpdateTemplatePatch, actingUserID string) (*model.FormTemplate, error) {
	if patch.Status != nil && *patch.Status != StatusActive && *patch.Status != StatusInactive {
		return nil, ValidationError(CodeValidationFailed, "非法的模板状态: %s", *patch.Status)
	}
	if patch.Questions != nil {
		if err := validateQuestions(*patch.Questions); err != nil {
			return nil, err
		}
	}

	var updated *model.FormTemplate
	err := s.store.InTransaction(ctx, func(tx Store) error {
		template, err := tx.GetTemplate(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if template == nil {
			return NotFoundError(CodeTemplateNotFound, "模板不存在")
		}

		if patch.Questions != nil {
			data, err := json.Marshal(*patch.Questions)
			if err != nil {
				return ValidationError(CodeValidationFailed, "题目配置无法序列化")
			}
			template.Questions = datatypes.JSON(data)
		}
		if patch.Workflow != nil {
			data, err := json.Marshal(*patch.Workflow)
			if err != nil {
				return ValidationError(CodeValidationFailed, "工作流配置无法序列化")
			}
			template.Workflow = datatypes.JSON(data)
		}
		if patch.DueDateCalculation != nil {
			data, err := json.Marshal(*patch.DueDateCalculation)
			if err != nil {
				return ValidationError(CodeValidationFailed, "到期规则配置无法序列化")
			}
			template.DueDateCalculation = datatypes.JSON(data)
		}
		if patch.AutoAssignmentRules != nil {
			data, err := json.Marshal(*patch.AutoAssignmentRules)
			if err != nil {
				return ValidationError(CodeValidationFailed, "分配规则配置无法序列化")
			}
			template.AutoAssignmentRules = datatypes.JSON(data)
		}
		if patch.ReminderFrequency != nil {
			template.ReminderFrequency = *patch.ReminderFrequency
		}
		if patch.Status != nil {
			template.Status = *patch.Status
		}
		if patch.EffectiveDate != nil {
			template.EffectiveDate = *patch.EffectiveDate
		}
		if patch.ExpirationDate != nil {
			template.ExpirationDate = patch.ExpirationDate
		}
		if template.ExpirationDate != nil && !template.ExpirationDate.After(template.EffectiveDate) {
			return ValidationError(CodeValidationFailed, "失效时间必须晚于生效时间")
		}
		template.UpdatedBy = actingUserID
		template.UpdatedAt = s.clock.Now()

		if err := tx.UpdateTemplate(ctx, template); err != nil {
			return TransientError(err)
		}
		updated = template
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 软删除模板；仍有在途实例（draft/pending/approved）时拒绝
func (s *TemplateService) Delete(ctx context.Context, id, tenantID, actingUserID string) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		template, err := tx.GetTemplate(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if template == nil {
			return NotFoundError(CodeTemplateNotFound, "模板不存在")
		}

		liveInstances, err := tx.CountLiveInstances(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if liveInstances > 0 {
			return IntegrityError(CodeTemplateHasActiveInstances, "模板下仍有 %d 个在途实例，无法删除", liveInstances)
		}

		template.Status = StatusInactive
		template.UpdatedBy = actingUserID
		template.UpdatedAt = s.clock.Now()
		if err := tx.UpdateTemplate(ctx, template); err != nil {
			return TransientError(err)
		}
		return nil
	})
}

// Get 查询模板详情
func (s *TemplateService) Get(ctx context.Context, id, tenantID string) (*model.FormTemplate, error) {
	template, err := s.store.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, TransientError(err)
	}
	if template == nil {
		return nil, NotFoundError(CodeTemplateNotFound, "模板不存在")
	}
	return template, nil
}

// GetLatestVersion 查询 (type_id, name) 下版本号最大的模板
func (s *TemplateService) GetLatestVersion(ctx context.Context, name, typeID, tenantID string) (*model.FormTemplate, error) {
	template, err := s.store.LatestTemplate(ctx, tenantID, typeID, name)
	if err != nil {
		return nil, TransientError(err)
	}
	if template == nil {
		return nil, NotFoundError(CodeTemplateNotFound, "模板 %s 不存在", name)
	}
	return template, nil
}

// List 分页查询模板，typeID 为空时查询租户下全部
func (s *TemplateService) List(ctx context.Context, tenantID, typeID string, filter ListFilter) ([]model.FormTemplate, int64, error) {
	filter.Normalize()
	templates, total, err := s.store.ListTemplates(ctx, tenantID, typeID, filter)
	if err != nil {
		return nil, 0, TransientError(err)
	}
	return templates, total, nil
}

// lockVersionSequence 对 (type_id, name) 版本序列加 Redis 锁
// 拿不到锁（Redis 未启用或竞争失败）时不阻塞：数据库事务与行锁兜底
func (s *TemplateService) lockVersionSequence(typeID, name string) func() {
	lock := distributed.NewRedisLock(s.redis, fmt.Sprintf("form:template:version:%s:%s", typeID, name), versionLockExpiry)
	acquired, err := lock.TryLock()
	if err != nil || !acquired {
		return func() {}
	}
	return func() { _ = lock.Unlock() }
}

// validateQuestions 校验题目配置形状：id/type 必填，id 不可重复
func validateQuestions(questions []model.Question) *Error {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return ValidationError(CodeValidationFailed, "第 %d 道题目缺少 id", i+1)
		}
		if q.Type == "" {
			return ValidationError(CodeValidationFailed, "题目 %s 缺少类型", q.ID)
		}
		if seen[q.ID] {
			return ValidationError(CodeValidationFailed, "题目 id %s 重复", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func marshalTemplateConfig(template *model.FormTemplate, questions []model.Question, workflow *model.WorkflowConfig, dueDate *model.DueDateRule, assignment []model.AssignmentRule) *Error {
	if questions == nil {
		questions = []model.Question{}
	}
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return ValidationError(CodeValidationFailed, "题目配置无法序列化")
	}
	template.Questions = datatypes.JSON(questionsJSON)

	if workflow != nil {
		data, err := json.Marshal(workflow)
		if err != nil {
			return ValidationError(CodeValidationFailed, "工作流配置无法序列化")
		}
		template.Workflow = datatypes.JSON(data)
	}
	if dueDate != nil {
		data, err := json.Marshal(dueDate)
		if err != nil {
			return ValidationError(CodeValidationFailed, "到期规则配置无法序列化")
		}
		template.DueDateCalculation = datatypes.JSON(data)
	}
	if assignment != nil {
		data, err := json.Marshal(assignment)
		if err != nil {
			return ValidationError(CodeValidationFailed, "分配规则配置无法序列化")
		}
		template.AutoAssignmentRules = datatypes.JSON(data)
	}
	return nil
}
