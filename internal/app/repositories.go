package app

import (
	"github.com/codesidh/chc-insight-crm-sub000/internal/repository"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/database"
)

// Repositories 包含所有 Repository 实例
type Repositories struct {
	FormStore *repository.FormStore
	Directory *repository.DirectoryRepository
}

// InitializeRepositories 初始化所有 Repository
func InitializeRepositories() *Repositories {
	return &Repositories{
		FormStore: repository.NewFormStore(database.DB),
		Directory: repository.NewDirectoryRepository(database.DB),
	}
}
