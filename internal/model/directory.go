package model

import "time"

// MemberRecord 成员目录记录（外部系统同步进来的只读数据，用于表单预填充）
type MemberRecord struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_member" json:"tenant_id"`
	ExternalID  string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_member" json:"external_id"`
	FirstName   string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100)" json:"last_name"`
	DateOfBirth string    `gorm:"type:varchar(20)" json:"date_of_birth"`
	Email       string    `gorm:"type:varchar(100)" json:"email"`
	Phone       string    `gorm:"type:varchar(30)" json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (MemberRecord) TableName() string {
	return "member_records"
}

// ProviderRecord 服务方目录记录（外部系统同步，用于表单预填充）
type ProviderRecord struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID   string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_provider" json:"tenant_id"`
	ExternalID string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_provider" json:"external_id"`
	Name       string    `gorm:"type:varchar(200)" json:"name"`
	NPI        string    `gorm:"type:varchar(20)" json:"npi"`
	Specialty  string    `gorm:"type:varchar(100)" json:"specialty"`
	Email      string    `gorm:"type:varchar(100)" json:"email"`
	Phone      string    `gorm:"type:varchar(30)" json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ProviderRecord) TableName() string {
	return "provider_records"
}
