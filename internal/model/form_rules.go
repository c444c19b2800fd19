package model

import "time"

// 题目类型
const (
	QuestionTypeText     = "text"
	QuestionTypeTextarea = "textarea"
	QuestionTypeNumber   = "number"
	QuestionTypeDate     = "date"
	QuestionTypeBoolean  = "boolean"
	QuestionTypeSelect   = "select"
	QuestionTypeMulti    = "multi_select"
)

// 校验规则类型
const (
	ValidationRequired  = "required"
	ValidationMinLength = "minLength"
	ValidationMaxLength = "maxLength"
	ValidationPattern   = "pattern"
	ValidationMin       = "min"
	ValidationMax       = "max"
	ValidationEmail     = "email"
	ValidationPhone     = "phone"
)

// 条件规则操作符（封闭集合，求值侧用 switch 全覆盖）
const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorNotContains = "not_contains"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
	OperatorIsEmpty     = "is_empty"
	OperatorIsNotEmpty  = "is_not_empty"
)

// 到期时间规则类型
const (
	DueDateCalendarDays   = "calendar_days"
	DueDateBusinessDays   = "business_days"
	DueDateFromCreation   = "days_from_creation"
	DueDateFromAssignment = "days_from_assignment"
)

// Question 模板中的一道题目，order 升序渲染（相同 order 保持原数组顺序）
type Question struct {
	ID                   string            `json:"id"`
	Type                 string            `json:"type"`
	Text                 string            `json:"text"`
	Required             bool              `json:"required"`
	Validation           []ValidationRule  `json:"validation,omitempty"`
	ConditionalLogic     []ConditionalRule `json:"conditional_logic,omitempty"`
	Options              []string          `json:"options,omitempty"`
	DefaultValue         interface{}       `json:"default_value,omitempty"`
	PrePopulationMapping string            `json:"pre_population_mapping,omitempty"`
	Order                int               `json:"order"`
}

// ValidationRule 题目的静态校验约束
type ValidationRule struct {
	Type    string      `json:"type"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

// ConditionalRule 可见性规则：目标题目的当前答案与 value 按操作符比较
// 同一题目上的多条规则是 AND 关系，没有 OR 语义
type ConditionalRule struct {
	TargetQuestionID string      `json:"target_question_id"`
	Operator         string      `json:"operator"`
	Value            interface{} `json:"value,omitempty"`
}

// DueDateRule 到期时间计算规则
type DueDateRule struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

// AssignmentRule 自动分配规则：条件全部满足时分配给 assign_to，按顺序首条命中生效
type AssignmentRule struct {
	Conditions []ConditionalRule `json:"conditions,omitempty"`
	AssignTo   string            `json:"assign_to"`
}

// BusinessRule 类型级业务规则（条件/动作对，声明式配置）
type BusinessRule struct {
	Name       string            `json:"name"`
	Conditions []ConditionalRule `json:"conditions,omitempty"`
	Action     string            `json:"action"`
	Params     map[string]string `json:"params,omitempty"`
}

// WorkflowConfig 模板的工作流配置（审批人、提醒等，声明式）
type WorkflowConfig struct {
	Approvers        []string `json:"approvers,omitempty"`
	RequiresApproval bool     `json:"requires_approval"`
	NotifyOnSubmit   []string `json:"notify_on_submit,omitempty"`
}

// Response 一道题目的答案，重复作答覆盖旧值（last-write-wins，不保留历史）
type Response struct {
	QuestionID  string                 `json:"question_id"`
	Value       interface{}            `json:"value"`
	RespondedAt time.Time              `json:"responded_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
