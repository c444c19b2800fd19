package model

import "time"

// FormCategory 表单分类（层级最顶层，如 cases / assessments）
// 同一租户下名称唯一，删除为软删除（状态翻转为 inactive）
type FormCategory struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_category;index" json:"tenant_id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:uk_tenant_category" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Status      string    `gorm:"type:varchar(20);default:active;index" json:"status"`
	CreatedBy   string    `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy   string    `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (FormCategory) TableName() string {
	return "form_categories"
}
