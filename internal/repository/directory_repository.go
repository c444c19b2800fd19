package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// DirectoryRepository form.Directory 的 GORM 实现
// 成员/服务方目录由外部系统同步，这里只读，用于表单预填充
type DirectoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository 创建目录仓库
func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// MemberFields 查询成员的预填充字段表，记录不存在时返回 (nil, nil)
func (r *DirectoryRepository) MemberFields(ctx context.Context, tenantID, memberID string) (map[string]string, error) {
	var member model.MemberRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, memberID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"first_name":    member.FirstName,
		"last_name":     member.LastName,
		"date_of_birth": member.DateOfBirth,
		"email":         member.Email,
		"phone":         member.Phone,
	}, nil
}

// ProviderFields 查询服务方的预填充字段表，记录不存在时返回 (nil, nil)
func (r *DirectoryRepository) ProviderFields(ctx context.Context, tenantID, providerID string) (map[string]string, error) {
	var provider model.ProviderRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, providerID).
		First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"name":      provider.Name,
		"npi":       provider.NPI,
		"specialty": provider.Specialty,
		"email":     provider.Email,
		"phone":     provider.Phone,
	}, nil
}
