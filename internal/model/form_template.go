package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FormTemplate 表单模板（类型下的具体题目集 + 工作流配置）
// 唯一键为 (type_id, name, version)，版本号按 (type_id, name) 单调递增从 1 开始
// 模板被实例引用后仍可编辑（live 配置），实例只存模板引用不做快照
type FormTemplate struct {
	ID                  string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	TypeID              string         `gorm:"type:varchar(36);not null;uniqueIndex:uk_type_name_version;index" json:"type_id"`
	TenantID            string         `gorm:"type:varchar(50);not null;index" json:"tenant_id"`
	Name                string         `gorm:"type:varchar(100);not null;uniqueIndex:uk_type_name_version" json:"name"`
	Version             int            `gorm:"not null;default:1;uniqueIndex:uk_type_name_version" json:"version"`
	Questions           datatypes.JSON `gorm:"type:json;not null" json:"questions"`
	Workflow            datatypes.JSON `gorm:"type:json" json:"workflow"`
	DueDateCalculation  datatypes.JSON `gorm:"type:json" json:"due_date_calculation"`
	ReminderFrequency   string         `gorm:"type:varchar(50)" json:"reminder_frequency"`
	AutoAssignmentRules datatypes.JSON `gorm:"type:json" json:"auto_assignment_rules"`
	Status              string         `gorm:"type:varchar(20);default:active;index" json:"status"`
	EffectiveDate       time.Time      `json:"effective_date"`
	ExpirationDate      *time.Time     `json:"expiration_date,omitempty"`
	CreatedBy           string         `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy           string         `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (FormTemplate) TableName() string {
	return "form_templates"
}

// QuestionList 解析模板的题目配置
func (t *FormTemplate) QuestionList() ([]Question, error) {
	if len(t.Questions) == 0 {
		return nil, nil
	}
	var questions []Question
	if err := json.Unmarshal(t.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// DueDateRuleConfig 解析模板的到期时间规则，未配置时返回 nil
func (t *FormTemplate) DueDateRuleConfig() (*DueDateRule, error) {
	if len(t.DueDateCalculation) == 0 {
		return nil, nil
	}
	var rule DueDateRule
	if err := json.Unmarshal(t.DueDateCalculation, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// AssignmentRuleList 解析模板的自动分配规则
func (t *FormTemplate) AssignmentRuleList() ([]AssignmentRule, error) {
	if len(t.AutoAssignmentRules) == 0 {
		return nil, nil
	}
	var rules []AssignmentRule
	if err := json.Unmarshal(t.AutoAssignmentRules, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}
