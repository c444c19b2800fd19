package database

import (
	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/logger"
)

// AutoMigrateAll 自动迁移所有表结构
func AutoMigrateAll() error {
	logger.Infof("Running database migrations...")
	return DB.AutoMigrate(
		&model.FormCategory{},
		&model.FormType{},
		&model.FormTemplate{},
		&model.FormInstance{},
		&model.MemberRecord{},
		&model.ProviderRecord{},
	)
}
