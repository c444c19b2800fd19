package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codesidh/chc-insight-crm-sub000/internal/api/router"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/config"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/database"
	"github.com/codesidh/chc-insight-crm-sub000/pkg/logger"
	pkgredis "github.com/codesidh/chc-insight-crm-sub000/pkg/redis"
)

// StartServer 启动 HTTP 服务器，阻塞直到收到退出信号
func StartServer(cfg *config.Config, handlers *Handlers) {
	gin.SetMode(cfg.Server.Mode)

	r := router.Setup(
		handlers.Category,
		handlers.Type,
		handlers.Template,
		handlers.Instance,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	logger.Infof("HTTP server listening on %s", addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Infof("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP server shutdown error: %v", err)
	}

	if err := pkgredis.Close(); err != nil {
		logger.Warnf("Redis close error: %v", err)
	}

	if err := database.Close(); err != nil {
		logger.Warnf("Database close error: %v", err)
	}

	logger.Infof("Server exited")
	logger.Sync()
}
