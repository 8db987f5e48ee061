package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"koemail/admin/internal/middleware"
	"koemail/admin/internal/service"
)

// ListSettings 系统设置，按分类分组展示
func (h *WebHandler) ListSettings(c *gin.Context) {
	groups, err := h.settings.Grouped()
	if err != nil {
		h.log.Error("failed to list settings", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "settings_list.html", gin.H{
		"Groups": groups,
	})
}

// UpdateSetting 覆盖单个设置值。键不存在返回 404，
// 值按提交的原始字符串存储。
func (h *WebHandler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	setting, err := h.settings.Update(key, c.PostForm("value"))
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			c.String(http.StatusNotFound, "not found")
			return
		}
		h.log.Error("failed to update setting", zap.String("key", key), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.SettingsUpdated.Inc()
	h.log.Info("setting updated",
		zap.String("key", setting.Key),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "Setting "+setting.Key+" updated successfully!")
	c.Redirect(http.StatusFound, "/settings")
}
