package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dashboard 仪表盘：聚合统计加最近创建的用户
func (h *WebHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Stats()
	if err != nil {
		h.log.Error("failed to load dashboard stats", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	recent, err := h.dashboard.RecentUsers()
	if err != nil {
		h.log.Error("failed to load recent users", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Stats":       stats,
		"RecentUsers": recent,
	})
}
