package form

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// InstanceService 表单实例生命周期管理
type InstanceService struct {
	store     Store
	clock     Clock
	directory Directory
}

// NewInstanceService 创建实例服务，directory 可为 nil（不做预填充）
func NewInstanceService(store Store, clock Clock, directory Directory) *InstanceService {
	return &InstanceService{store: store, clock: clock, directory: directory}
}

// CreateInstanceInput 创建实例入参
type CreateInstanceInput struct {
	TemplateID  string                 `json:"template_id" binding:"required"`
	MemberID    string                 `json:"member_id"`
	ProviderID  string                 `json:"provider_id"`
	AssignedTo  string                 `json:"assigned_to"`
	DueDate     *time.Time             `json:"due_date"`
	ContextData map[string]interface{} `json:"context_data"`
	Responses   []model.Response       `json:"responses"`
}

// UpdateInstancePatch 更新实例入参，nil 字段不修改
// Responses 为增量合并：同题覆盖旧值（last-write-wins）
type UpdateInstancePatch struct {
	Status          *string                 `json:"status"`
	Responses       []model.Response        `json:"responses"`
	ContextData     *map[string]interface{} `json:"context_data"`
	AssignedTo      *string                 `json:"assigned_to"`
	DueDate         *time.Time              `json:"due_date"`
	RejectionReason *string                 `json:"rejection_reason"`
}

// generateInstanceNumber 生成实例编号
func generateInstanceNumber(now time.Time) string {
	return fmt.Sprintf("FRM-%s%s", now.Format("20060102150405"), uuid.New().String()[:8])
}

// Create 创建实例，初始状态 draft
// 模板必须存在、同租户且启用；member/provider 维度做重复提交检测；
// 到期时间优先级：显式指定 > 模板规则 > 无
func (s *InstanceService) Create(ctx context.Context, tenantID string, input CreateInstanceInput, actingUserID string) (*model.FormInstance, error) {
	if input.TemplateID == "" {
		return nil, ValidationError(CodeValidationFailed, "必须指定模板")
	}

	now := s.clock.Now()
	instance := &model.FormInstance{
		ID:             uuid.New().String(),
		InstanceNumber: generateInstanceNumber(now),
		TemplateID:     input.TemplateID,
		TenantID:       tenantID,
		MemberID:       input.MemberID,
		ProviderID:     input.ProviderID,
		AssignedTo:     input.AssignedTo,
		Status:         InstanceDraft,
		DueDate:        input.DueDate,
		CreatedBy:      actingUserID,
		UpdatedBy:      actingUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.ContextData != nil {
		ctxJSON, err := json.Marshal(input.ContextData)
		if err != nil {
			return nil, ValidationError(CodeValidationFailed, "上下文数据无法序列化")
		}
		instance.ContextData = datatypes.JSON(ctxJSON)
	}

	err := s.store.InTransaction(ctx, func(tx Store) error {
		template, err := tx.GetTemplate(ctx, tenantID, input.TemplateID)
		if err != nil {
			return TransientError(err)
		}
		if template == nil || template.Status != StatusActive {
			return NotFoundError(CodeTemplateNotFound, "模板不存在或未启用")
		}

		// 重复提交检测：同模板下 member/provider（提供哪个就按哪个匹配）
		// 存在 draft/pending/approved 在途实例时拒绝
		if input.MemberID != "" || input.ProviderID != "" {
			existing, err := tx.FindLiveInstance(ctx, tenantID, input.TemplateID, input.MemberID, input.ProviderID)
			if err != nil {
				return TransientError(err)
			}
			if existing != nil {
				return ConflictError(CodeDuplicateInstance, "该模板下已存在在途实例 %s", existing.InstanceNumber)
			}
		}

		questions, qErr := template.QuestionList()
		if qErr != nil {
			return ValidationError(CodeValidationFailed, "模板题目配置损坏: %v", qErr)
		}

		responses := mergeResponses(nil, input.Responses, now)
		responses = s.prePopulate(ctx, tenantID, questions, responses, input.MemberID, input.ProviderID, now)
		if err := instance.SetResponseList(responses); err != nil {
			return ValidationError(CodeValidationFailed, "答题数据无法序列化")
		}

		if instance.DueDate == nil {
			rule, rErr := template.DueDateRuleConfig()
			if rErr != nil {
				return ValidationError(CodeValidationFailed, "模板到期规则配置损坏: %v", rErr)
			}
			instance.DueDate = ResolveDueDate(nil, rule, now)
		}

		if instance.AssignedTo == "" {
			instance.AssignedTo = s.autoAssign(template, instance, responses)
		}

		if err := tx.CreateInstance(ctx, instance); err != nil {
			return TransientError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Update 更新实例：合并答案、修改分配/上下文、执行状态迁移
func (s *InstanceService) Update(ctx context.Context, id, tenantID string, patch UpdateInstancePatch, actingUserID string) (*model.FormInstance, error) {
	if patch.Status != nil && !IsValidInstanceStatus(*patch.Status) {
		return nil, ValidationError(CodeValidationFailed, "未知的实例状态: %s", *patch.Status)
	}

	var updated *model.FormInstance
	err := s.store.InTransaction(ctx, func(tx Store) error {
		instance, err := tx.GetInstance(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if instance == nil {
			return NotFoundError(CodeInstanceNotFound, "实例不存在")
		}

		now := s.clock.Now()

		if len(patch.Responses) > 0 {
			existing, rErr := instance.ResponseList()
			if rErr != nil {
				return ValidationError(CodeValidationFailed, "实例答题数据损坏: %v", rErr)
			}
			merged := mergeResponses(existing, patch.Responses, now)
			if err := instance.SetResponseList(merged); err != nil {
				return ValidationError(CodeValidationFailed, "答题数据无法序列化")
			}
		}
		if patch.ContextData != nil {
			ctxJSON, mErr := json.Marshal(*patch.ContextData)
			if mErr != nil {
				return ValidationError(CodeValidationFailed, "上下文数据无法序列化")
			}
			instance.ContextData = datatypes.JSON(ctxJSON)
		}
		if patch.AssignedTo != nil {
			instance.AssignedTo = *patch.AssignedTo
		}
		if patch.DueDate != nil {
			instance.DueDate = patch.DueDate
		}
		if patch.RejectionReason != nil {
			instance.RejectionReason = *patch.RejectionReason
		}

		if patch.Status != nil && *patch.Status != instance.Status {
			if err := s.applyTransition(ctx, tx, instance, *patch.Status, now); err != nil {
				return err
			}
		} else if patch.Status != nil {
			// 原状态重入：合法但不重复盖时间戳
			if !CanTransition(instance.Status, *patch.Status) {
				return ValidationError(CodeInvalidStatusTransition, "状态 %s 不允许重入", instance.Status)
			}
		}

		instance.UpdatedBy = actingUserID
		instance.UpdatedAt = now
		if err := tx.UpdateInstance(ctx, instance); err != nil {
			return TransientError(err)
		}
		updated = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyTransition 执行状态迁移并盖首次进入的时间戳
func (s *InstanceService) applyTransition(ctx context.Context, tx Store, instance *model.FormInstance, target string, now time.Time) error {
	if !CanTransition(instance.Status, target) {
		return ValidationError(CodeInvalidStatusTransition, "不允许从 %s 迁移到 %s", instance.Status, target)
	}

	// 提交（进入 pending）前做服务端答案校验：
	// 必填但被条件规则隐藏的题目不阻塞提交
	if target == InstancePending {
		template, err := tx.GetTemplate(ctx, instance.TenantID, instance.TemplateID)
		if err != nil {
			return TransientError(err)
		}
		if template != nil {
			questions, qErr := template.QuestionList()
			if qErr != nil {
				return ValidationError(CodeValidationFailed, "模板题目配置损坏: %v", qErr)
			}
			responses, rErr := instance.ResponseList()
			if rErr != nil {
				return ValidationError(CodeValidationFailed, "实例答题数据损坏: %v", rErr)
			}
			if vErr := ValidateResponses(questions, responses); vErr != nil {
				return vErr
			}
		}
	}

	instance.Status = target

	// 时间戳只在首次进入时写入，重入不覆盖原始事件时间
	switch target {
	case InstancePending:
		if instance.SubmittedAt == nil {
			instance.SubmittedAt = &now
		}
	case InstanceApproved:
		if instance.ApprovedAt == nil {
			instance.ApprovedAt = &now
		}
	case InstanceRejected:
		if instance.RejectedAt == nil {
			instance.RejectedAt = &now
		}
	}
	return nil
}

// Delete 删除实例：只允许 draft / rejected，实际实现为迁移到 cancelled
// 与审计留存要求一致，不做物理删除
func (s *InstanceService) Delete(ctx context.Context, id, tenantID, actingUserID string) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		instance, err := tx.GetInstance(ctx, tenantID, id)
		if err != nil {
			return TransientError(err)
		}
		if instance == nil {
			return NotFoundError(CodeInstanceNotFound, "实例不存在")
		}
		if !IsDeletableStatus(instance.Status) {
			return IntegrityError(CodeInstanceCannotDelete, "状态为 %s 的实例不允许删除", instance.Status)
		}

		instance.Status = InstanceCancelled
		instance.UpdatedBy = actingUserID
		instance.UpdatedAt = s.clock.Now()
		if err := tx.UpdateInstance(ctx, instance); err != nil {
			return TransientError(err)
		}
		return nil
	})
}

// Get 查询实例详情
func (s *InstanceService) Get(ctx context.Context, id, tenantID string) (*model.FormInstance, error) {
	instance, err := s.store.GetInstance(ctx, tenantID, id)
	if err != nil {
		return nil, TransientError(err)
	}
	if instance == nil {
		return nil, NotFoundError(CodeInstanceNotFound, "实例不存在")
	}
	return instance, nil
}

// List 分页查询实例，templateID 为空时查询租户下全部
func (s *InstanceService) List(ctx context.Context, tenantID, templateID string, filter ListFilter) ([]model.FormInstance, int64, error) {
	filter.Normalize()
	instances, total, err := s.store.ListInstances(ctx, tenantID, templateID, filter)
	if err != nil {
		return nil, 0, TransientError(err)
	}
	return instances, total, nil
}

// prePopulate 按题目的 pre_population_mapping（如 member.first_name）
// 从目录端口取值，为尚未作答的题目填入初始答案
func (s *InstanceService) prePopulate(ctx context.Context, tenantID string, questions []model.Question, responses []model.Response, memberID, providerID string, now time.Time) []model.Response {
	if s.directory == nil {
		return responses
	}

	var memberFields, providerFields map[string]string
	if memberID != "" {
		memberFields, _ = s.directory.MemberFields(ctx, tenantID, memberID)
	}
	if providerID != "" {
		providerFields, _ = s.directory.ProviderFields(ctx, tenantID, providerID)
	}
	if memberFields == nil && providerFields == nil {
		return responses
	}

	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}

	for _, question := range questions {
		if question.PrePopulationMapping == "" || answered[question.ID] {
			continue
		}
		source, field, ok := strings.Cut(question.PrePopulationMapping, ".")
		if !ok {
			continue
		}
		var fields map[string]string
		switch source {
		case "member":
			fields = memberFields
		case "provider":
			fields = providerFields
		}
		value, exists := fields[field]
		if !exists || value == "" {
			continue
		}
		responses = append(responses, model.Response{
			QuestionID:  question.ID,
			Value:       value,
			RespondedAt: now,
			Metadata:    map[string]interface{}{"source": "pre_population"},
		})
	}
	return responses
}

// autoAssign 按模板分配规则求值，首条条件全部命中的规则生效
// 条件在上下文数据 + 当前答案的合并视图上求值
func (s *InstanceService) autoAssign(template *model.FormTemplate, instance *model.FormInstance, responses []model.Response) string {
	rules, err := template.AssignmentRuleList()
	if err != nil || len(rules) == 0 {
		return ""
	}

	view := make(map[string]interface{})
	if ctxData, err := instance.ContextMap(); err == nil {
		for k, v := range ctxData {
			view[k] = v
		}
	}
	for k, v := range ResponseMap(responses) {
		view[k] = v
	}

	for _, rule := range rules {
		matched := true
		for _, cond := range rule.Conditions {
			if !evalRule(cond, view) {
				matched = false
				break
			}
		}
		if matched && rule.AssignTo != "" {
			return rule.AssignTo
		}
	}
	return ""
}

// mergeResponses 合并答案：同题覆盖旧值并保持首答顺序，新题追加
func mergeResponses(existing, incoming []model.Response, now time.Time) []model.Response {
	merged := make([]model.Response, len(existing))
	copy(merged, existing)
	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.QuestionID] = i
	}

	for _, r := range incoming {
		if r.QuestionID == "" {
			continue
		}
		if r.RespondedAt.IsZero() {
			r.RespondedAt = now
		}
		if i, ok := index[r.QuestionID]; ok {
			merged[i] = r
		} else {
			index[r.QuestionID] = len(merged)
			merged = append(merged, r)
		}
	}
	return merged
}
