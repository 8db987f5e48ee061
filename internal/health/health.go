package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"koemail/admin/internal/storage"
)

// HealthChecker 健康检查器。容器编排用 /health/live 和 /health/ready，
// 简单探测用纯文本的 /health。
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(store storage.Store, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	hc.health.AddLivenessCheck("database", func() error {
		return hc.store.Health()
	})
	hc.health.AddReadinessCheck("database", func() error {
		return hc.store.Health()
	})

	return hc
}

// Check 直接探测数据库，给纯文本健康端点用
func (hc *HealthChecker) Check() error {
	if err := hc.store.Health(); err != nil {
		hc.logger.Warn("health check failed", zap.Error(err))
		return err
	}
	return nil
}

// LiveHandler 存活检查处理器
func (hc *HealthChecker) LiveHandler() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// ReadyHandler 就绪检查处理器
func (hc *HealthChecker) ReadyHandler() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}
