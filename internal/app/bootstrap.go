package app

import (
	"log"
	"os"

	"github.com/codesidh/chc-insight-crm-sub000/pkg/config"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/database"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/logger"
	pkgredis "github.com/codesidh/chc-insight-crm-sub000/pkg/redis"
)

// Bootstrap 初始化基础设施（logger, database, redis）
func Bootstrap(cfgPath string) (*config.Config, error) {
	// 支持通过环境变量指定配置文件路径
	if cfgPath == "" {
		cfgPath = os.Getenv("FORMS_CONFIG")
		if cfgPath == "" {
			cfgPath = "config/config.yaml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	// Initialize logger
	if err := logger.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	logger.Infof("Database initialized successfully")

	// Initialize Redis (optional, for distributed version locking)
	if err := pkgredis.Init(&cfg.Redis); err != nil {
		logger.Warnf("Redis initialization failed: %v", err)
		logger.Info("   → Template version sequencing falls back to database locking")
	} else if cfg.Redis.Enabled {
		logger.Infof("Redis initialized successfully - distributed locking enabled")
	} else {
		logger.Info("Redis is disabled in config - single-server mode")
	}

	return cfg, nil
}
