package model

import (
	"time"

	"gorm.io/datatypes"
)

// FormType 表单类型（分类下的一类表单，如 Appeals）
// 同一分类下名称唯一，业务规则以 JSON 配置存储，仅做解释不做执行
type FormType struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CategoryID    string         `gorm:"type:varchar(36);not null;uniqueIndex:uk_category_type;index" json:"category_id"`
	TenantID      string         `gorm:"type:varchar(50);not null;index" json:"tenant_id"`
	Name          string         `gorm:"type:varchar(100);not null;uniqueIndex:uk_category_type" json:"name"`
	Description   string         `gorm:"type:varchar(255)" json:"description"`
	BusinessRules datatypes.JSON `gorm:"type:json" json:"business_rules"`
	Status        string         `gorm:"type:varchar(20);default:active;index" json:"status"`
	CreatedBy     string         `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy     string         `gorm:"type:varchar(50)" json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (FormType) TableName() string {
	return "form_types"
}
