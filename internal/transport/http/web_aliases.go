package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListAliases 别名列表，只读展示
func (h *WebHandler) ListAliases(c *gin.Context) {
	aliases, err := h.aliases.List()
	if err != nil {
		h.log.Error("failed to list aliases", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "aliases_list.html", gin.H{
		"Aliases": aliases,
	})
}
