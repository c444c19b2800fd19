package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FormInstance 表单实例（模板的一次填报，可关联成员/服务方）
// 状态机：draft → pending → {approved, rejected}；approved → completed；
// 非终态均可 → cancelled；completed / cancelled 为终态
type FormInstance struct {
	ID              string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	InstanceNumber  string         `gorm:"type:varchar(50);uniqueIndex" json:"instance_number"`
	TemplateID      string         `gorm:"type:varchar(36);not null;index:idx_template_member;index:idx_template_provider" json:"template_id"`
	TenantID        string         `gorm:"type:varchar(50);not null;index" json:"tenant_id"`
	MemberID        string         `gorm:"type:varchar(50);index:idx_template_member" json:"member_id,omitempty"`
	ProviderID      string         `gorm:"type:varchar(50);index:idx_template_provider" json:"provider_id,omitempty"`
	AssignedTo      string         `gorm:"type:varchar(50);index" json:"assigned_to,omitempty"`
	Status          string         `gorm:"type:varchar(20);default:draft;index" json:"status"`
	ResponseData    datatypes.JSON `gorm:"type:json" json:"response_data"`
	ContextData     datatypes.JSON `gorm:"type:json" json:"context_data"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	RejectedAt      *time.Time     `json:"rejected_at,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedBy       string         `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy       string         `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Template FormTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// TableName 指定表名
func (FormInstance) TableName() string {
	return "form_instances"
}

// ResponseList 解析实例的答题数据
func (i *FormInstance) ResponseList() ([]Response, error) {
	if len(i.ResponseData) == 0 {
		return nil, nil
	}
	var responses []Response
	if err := json.Unmarshal(i.ResponseData, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// SetResponseList 写回答题数据
func (i *FormInstance) SetResponseList(responses []Response) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return err
	}
	i.ResponseData = datatypes.JSON(data)
	return nil
}

// ContextMap 解析实例的上下文数据
func (i *FormInstance) ContextMap() (map[string]interface{}, error) {
	if len(i.ContextData) == 0 {
		return nil, nil
	}
	var ctx map[string]interface{}
	if err := json.Unmarshal(i.ContextData, &ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}
