package form

import (
	"context"
	"testing"
	"time"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// instanceFixture 建好 分类→类型→模板 链，返回模板服务与模板
func instanceFixture(t *testing.T, store *memStore, clock Clock, input CreateTemplateInput) *model.FormTemplate {
	t.Helper()
	ctx := context.Background()
	typeID := templateFixture(t, store, clock)
	svc := NewTemplateService(store, clock, nil)

	input.TypeID = typeID
	if input.Name == "" {
		input.Name = "年度健康评估"
	}
	template, err := svc.Create(ctx, "tenant-a", input, "user-1")
	if err != nil {
		t.Fatalf("建模板失败: %v", err)
	}
	return template
}

// TestInstanceCreate 测试实例创建的基本行为
func TestInstanceCreate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{})
	svc := NewInstanceService(store, clock, nil)

	t.Run("初始状态为草稿", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.Status != InstanceDraft {
			t.Errorf("status = %s, expected draft", instance.Status)
		}
		if instance.InstanceNumber == "" {
			t.Errorf("实例编号不应为空")
		}
	})

	t.Run("模板不存在拒绝", func(t *testing.T) {
		_, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: "missing"}, "user-1")
		if !IsCode(err, CodeTemplateNotFound) {
			t.Errorf("error = %v, expected code %s", err, CodeTemplateNotFound)
		}
	})

	t.Run("模板停用后拒绝创建", func(t *testing.T) {
		templateSvc := NewTemplateService(store, clock, nil)
		inactive := StatusInactive
		disabled, err := templateSvc.Create(ctx, "tenant-a", CreateTemplateInput{TypeID: template.TypeID, Name: "已停用模板"}, "user-1")
		if err != nil {
			t.Fatalf("建模板失败: %v", err)
		}
		if _, err := templateSvc.Update(ctx, disabled.ID, "tenant-a", UpdateTemplatePatch{Status: &inactive}, "user-1"); err != nil {
			t.Fatalf("停用模板失败: %v", err)
		}
		_, err = svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: disabled.ID}, "user-1")
		if !IsCode(err, CodeTemplateNotFound) {
			t.Errorf("error = %v, expected code %s", err, CodeTemplateNotFound)
		}
	})
}

// TestDuplicateInstanceDetection 测试重复提交检测
func TestDuplicateInstanceDetection(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{})
	svc := NewInstanceService(store, clock, nil)

	first, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-1"}, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("同成员在途实例冲突", func(t *testing.T) {
		_, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-1"}, "user-1")
		if !IsCode(err, CodeDuplicateInstance) {
			t.Errorf("error = %v, expected code %s", err, CodeDuplicateInstance)
		}
	})

	t.Run("不同成员不冲突", func(t *testing.T) {
		if _, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-2"}, "user-1"); err != nil {
			t.Errorf("不同成员应允许, error = %v", err)
		}
	})

	t.Run("无成员无服务方的实例不参与检测", func(t *testing.T) {
		if _, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID}, "user-1"); err != nil {
			t.Errorf("匿名实例应允许, error = %v", err)
		}
	})

	t.Run("走完流程后允许再次创建", func(t *testing.T) {
		pending := InstancePending
		approved := InstanceApproved
		completed := InstanceCompleted
		for _, status := range []*string{&pending, &approved, &completed} {
			if _, err := svc.Update(ctx, first.ID, "tenant-a", UpdateInstancePatch{Status: status}, "user-1"); err != nil {
				t.Fatalf("迁移到 %s 失败: %v", *status, err)
			}
		}
		if _, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-1"}, "user-1"); err != nil {
			t.Errorf("completed 实例不应阻塞再次创建, error = %v", err)
		}
	})
}

// TestInstanceDueDate 测试到期时间优先级与工作日推算
func TestInstanceDueDate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	// 2026-08-24 周一
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{
		DueDateCalculation: &model.DueDateRule{Type: model.DueDateBusinessDays, Value: 2},
	})
	svc := NewInstanceService(store, clock, nil)

	t.Run("模板规则周一加两个工作日到周三", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-1"}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		want := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
		if instance.DueDate == nil || !instance.DueDate.Equal(want) {
			t.Errorf("due_date = %v, expected %v", instance.DueDate, want)
		}
	})

	t.Run("显式到期时间覆盖模板规则", func(t *testing.T) {
		explicit := clock.Now().AddDate(0, 1, 0)
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-2", DueDate: &explicit}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.DueDate == nil || !instance.DueDate.Equal(explicit) {
			t.Errorf("due_date = %v, expected %v", instance.DueDate, explicit)
		}
	})

	t.Run("无规则无显式值时无到期时间", func(t *testing.T) {
		templateSvc := NewTemplateService(store, clock, nil)
		bare, err := templateSvc.Create(ctx, "tenant-a", CreateTemplateInput{TypeID: template.TypeID, Name: "无规则模板"}, "user-1")
		if err != nil {
			t.Fatalf("建模板失败: %v", err)
		}
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: bare.ID}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.DueDate != nil {
			t.Errorf("due_date = %v, expected nil", instance.DueDate)
		}
	})
}

// TestInstanceTransitions 测试状态迁移、提交校验与时间戳幂等
func TestInstanceTransitions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeText, Required: true, Order: 1},
			{ID: "q2", Type: model.QuestionTypeText, Required: true, Order: 2, ConditionalLogic: []model.ConditionalRule{
				{TargetQuestionID: "q1", Operator: model.OperatorEquals, Value: "show"},
			}},
		},
	})
	svc := NewInstanceService(store, clock, nil)

	pending := InstancePending
	approved := InstanceApproved
	rejected := InstanceRejected
	draft := InstanceDraft
	completed := InstanceCompleted

	instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-1"}, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("必填未作答时提交拒绝", func(t *testing.T) {
		_, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &pending}, "user-1")
		if !IsCode(err, CodeValidationFailed) {
			t.Errorf("error = %v, expected code %s", err, CodeValidationFailed)
		}
	})

	t.Run("必填但隐藏的题目不阻塞提交", func(t *testing.T) {
		// q1 答 hide 使 q2 不可见，q2 虽必填但不拦截
		updated, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{
			Status:    &pending,
			Responses: []model.Response{{QuestionID: "q1", Value: "hide"}},
		}, "user-1")
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Status != InstancePending {
			t.Errorf("status = %s, expected pending", updated.Status)
		}
		if updated.SubmittedAt == nil {
			t.Errorf("submitted_at 应在进入 pending 时写入")
		}
	})

	t.Run("草稿不能直接批准", func(t *testing.T) {
		other, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID, MemberID: "m-2"}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, err = svc.Update(ctx, other.ID, "tenant-a", UpdateInstancePatch{Status: &approved}, "user-1")
		if !IsCode(err, CodeInvalidStatusTransition) {
			t.Errorf("error = %v, expected code %s", err, CodeInvalidStatusTransition)
		}
	})

	t.Run("驳回后重新提交不覆盖首次提交时间", func(t *testing.T) {
		reason := "信息不完整"
		rejectedInst, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &rejected, RejectionReason: &reason}, "user-2")
		if err != nil {
			t.Fatalf("驳回失败: %v", err)
		}
		if rejectedInst.RejectedAt == nil {
			t.Fatalf("rejected_at 应在驳回时写入")
		}
		firstSubmitted := *rejectedInst.SubmittedAt
		firstRejected := *rejectedInst.RejectedAt

		// 退回草稿再提交
		if _, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &draft}, "user-1"); err != nil {
			t.Fatalf("退回草稿失败: %v", err)
		}
		clock.now = clock.now.Add(time.Hour)
		resubmitted, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &pending}, "user-1")
		if err != nil {
			t.Fatalf("重新提交失败: %v", err)
		}
		if !resubmitted.SubmittedAt.Equal(firstSubmitted) {
			t.Errorf("submitted_at = %v, 重提不应覆盖首次时间 %v", resubmitted.SubmittedAt, firstSubmitted)
		}

		// 再次驳回也不覆盖首次驳回时间
		again, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &rejected}, "user-2")
		if err != nil {
			t.Fatalf("再次驳回失败: %v", err)
		}
		if !again.RejectedAt.Equal(firstRejected) {
			t.Errorf("rejected_at = %v, 不应覆盖首次时间 %v", again.RejectedAt, firstRejected)
		}
	})

	t.Run("重复批准不覆盖批准时间", func(t *testing.T) {
		other, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
			TemplateID: template.ID,
			MemberID:   "m-3",
			Responses:  []model.Response{{QuestionID: "q1", Value: "hide"}},
		}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := svc.Update(ctx, other.ID, "tenant-a", UpdateInstancePatch{Status: &pending}, "user-1"); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
		first, err := svc.Update(ctx, other.ID, "tenant-a", UpdateInstancePatch{Status: &approved}, "user-2")
		if err != nil {
			t.Fatalf("批准失败: %v", err)
		}
		if first.ApprovedAt == nil {
			t.Fatalf("approved_at 应在批准时写入")
		}
		firstApproved := *first.ApprovedAt

		clock.now = clock.now.Add(time.Hour)
		again, err := svc.Update(ctx, other.ID, "tenant-a", UpdateInstancePatch{Status: &approved}, "user-2")
		if err != nil {
			t.Fatalf("重复批准应为合法空操作: %v", err)
		}
		if !again.ApprovedAt.Equal(firstApproved) {
			t.Errorf("approved_at = %v, 重入不应覆盖首次时间 %v", again.ApprovedAt, firstApproved)
		}
	})

	t.Run("终态不可迁出", func(t *testing.T) {
		if _, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &pending}, "user-1"); err != nil {
			t.Fatalf("重新提交失败: %v", err)
		}
		if _, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &approved}, "user-2"); err != nil {
			t.Fatalf("批准失败: %v", err)
		}
		if _, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &completed}, "user-2"); err != nil {
			t.Fatalf("完成失败: %v", err)
		}
		_, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &draft}, "user-1")
		if !IsCode(err, CodeInvalidStatusTransition) {
			t.Errorf("error = %v, expected code %s", err, CodeInvalidStatusTransition)
		}
	})

	t.Run("未知状态拒绝", func(t *testing.T) {
		bogus := "archived"
		_, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &bogus}, "user-1")
		if !IsCode(err, CodeValidationFailed) {
			t.Errorf("error = %v, expected code %s", err, CodeValidationFailed)
		}
	})
}

// TestInstanceResponseMerge 测试答案增量合并
func TestInstanceResponseMerge(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{})
	svc := NewInstanceService(store, clock, nil)

	instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
		TemplateID: template.ID,
		Responses: []model.Response{
			{QuestionID: "q1", Value: "first"},
			{QuestionID: "q2", Value: "keep"},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{
		Responses: []model.Response{
			{QuestionID: "q1", Value: "second"},
			{QuestionID: "q3", Value: "new"},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	responses, err := updated.ResponseList()
	if err != nil {
		t.Fatalf("ResponseList() error = %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("len(responses) = %d, expected 3", len(responses))
	}
	// 同题覆盖且保持首答顺序，新题追加到末尾
	if responses[0].QuestionID != "q1" || responses[0].Value != "second" {
		t.Errorf("responses[0] = %+v, expected q1=second", responses[0])
	}
	if responses[1].QuestionID != "q2" || responses[1].Value != "keep" {
		t.Errorf("responses[1] = %+v, expected q2=keep", responses[1])
	}
	if responses[2].QuestionID != "q3" || responses[2].Value != "new" {
		t.Errorf("responses[2] = %+v, expected q3=new", responses[2])
	}
}

// TestInstancePrePopulation 测试目录字段预填充
func TestInstancePrePopulation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{
		Questions: []model.Question{
			{ID: "q_first", Type: model.QuestionTypeText, PrePopulationMapping: "member.first_name", Order: 1},
			{ID: "q_npi", Type: model.QuestionTypeText, PrePopulationMapping: "provider.npi", Order: 2},
			{ID: "q_missing", Type: model.QuestionTypeText, PrePopulationMapping: "member.middle_name", Order: 3},
		},
	})
	directory := &fakeDirectory{
		members:   map[string]map[string]string{"m-1": {"first_name": "Ada"}},
		providers: map[string]map[string]string{"p-1": {"npi": "1234567890"}},
	}
	svc := NewInstanceService(store, clock, directory)

	instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
		TemplateID: template.ID,
		MemberID:   "m-1",
		ProviderID: "p-1",
		Responses:  []model.Response{{QuestionID: "q_first", Value: "手工值"}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	values := ResponseMap(mustResponses(t, instance))
	// 已作答的题目不被预填充覆盖
	if values["q_first"] != "手工值" {
		t.Errorf("q_first = %v, 预填充不应覆盖手工答案", values["q_first"])
	}
	if values["q_npi"] != "1234567890" {
		t.Errorf("q_npi = %v, expected 1234567890", values["q_npi"])
	}
	// 目录没有的字段不产生答案
	if _, ok := values["q_missing"]; ok {
		t.Errorf("q_missing 不应被预填充")
	}
}

func mustResponses(t *testing.T, instance *model.FormInstance) []model.Response {
	t.Helper()
	responses, err := instance.ResponseList()
	if err != nil {
		t.Fatalf("ResponseList() error = %v", err)
	}
	return responses
}

// TestInstanceAutoAssign 测试自动分配规则首条命中
func TestInstanceAutoAssign(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{
		AutoAssignmentRules: []model.AssignmentRule{
			{Conditions: []model.ConditionalRule{
				{TargetQuestionID: "region", Operator: model.OperatorEquals, Value: "north"},
			}, AssignTo: "team-north"},
			{Conditions: []model.ConditionalRule{
				{TargetQuestionID: "region", Operator: model.OperatorIsNotEmpty},
			}, AssignTo: "team-default"},
		},
	})
	svc := NewInstanceService(store, clock, nil)

	t.Run("首条命中生效", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
			TemplateID:  template.ID,
			ContextData: map[string]interface{}{"region": "north"},
		}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.AssignedTo != "team-north" {
			t.Errorf("assigned_to = %s, expected team-north", instance.AssignedTo)
		}
	})

	t.Run("回落到下一条规则", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
			TemplateID:  template.ID,
			ContextData: map[string]interface{}{"region": "south"},
		}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.AssignedTo != "team-default" {
			t.Errorf("assigned_to = %s, expected team-default", instance.AssignedTo)
		}
	})

	t.Run("显式指定优先于自动分配", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{
			TemplateID:  template.ID,
			AssignedTo:  "user-42",
			ContextData: map[string]interface{}{"region": "north"},
		}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if instance.AssignedTo != "user-42" {
			t.Errorf("assigned_to = %s, expected user-42", instance.AssignedTo)
		}
	})
}

// TestInstanceDelete 测试删除规则：仅草稿/驳回可删，落库为取消
func TestInstanceDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := testClock()
	template := instanceFixture(t, store, clock, CreateTemplateInput{})
	svc := NewInstanceService(store, clock, nil)

	pending := InstancePending

	t.Run("草稿可删且落库为取消", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := svc.Delete(ctx, instance.ID, "tenant-a", "user-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		deleted, err := svc.Get(ctx, instance.ID, "tenant-a")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if deleted.Status != InstanceCancelled {
			t.Errorf("status = %s, expected cancelled", deleted.Status)
		}
	})

	t.Run("待审不可删", func(t *testing.T) {
		instance, err := svc.Create(ctx, "tenant-a", CreateInstanceInput{TemplateID: template.ID}, "user-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := svc.Update(ctx, instance.ID, "tenant-a", UpdateInstancePatch{Status: &pending}, "user-1"); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
		err = svc.Delete(ctx, instance.ID, "tenant-a", "user-1")
		if !IsCode(err, CodeInstanceCannotDelete) {
			t.Errorf("error = %v, expected code %s", err, CodeInstanceCannotDelete)
		}
	})

	t.Run("删除不存在的实例", func(t *testing.T) {
		err := svc.Delete(ctx, "missing", "tenant-a", "user-1")
		if !IsCode(err, CodeInstanceNotFound) {
			t.Errorf("error = %v, expected code %s", err, CodeInstanceNotFound)
		}
	})
}
