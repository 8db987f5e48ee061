package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/middleware"
	"koemail/admin/internal/monitoring"
	"koemail/admin/internal/service"
)

// WebHandler 管理后台 HTML 页面的处理器
type WebHandler struct {
	sessions  *sessions.CookieStore
	auth      *auth.Service
	dashboard *service.DashboardService
	users     *service.UserService
	domains   *service.DomainService
	aliases   *service.AliasService
	settings  *service.SettingsService
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// ShowLogin 渲染登录表单。已登录的管理员直接回仪表盘。
func (h *WebHandler) ShowLogin(c *gin.Context) {
	session := h.session(c)
	if id, ok := session.Values[middleware.SessionKeyUserID].(uint); ok && id != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, "login.html", nil)
}

// Login 校验凭证并建立会话。
// 无论用户不存在还是密码错误，页面上都是同一句提示。
func (h *WebHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.auth.Login(email, password)
	if err != nil {
		h.metrics.RecordLogin("failure")
		h.log.Warn("login failed",
			zap.String("ip", c.ClientIP()),
		)
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Error": "Invalid email or password.",
			"Email": email,
		})
		return
	}

	session := h.session(c)
	session.Values[middleware.SessionKeyUserID] = user.ID
	session.Values[middleware.SessionKeyUserEmail] = user.Email
	session.Values[middleware.SessionKeyUserName] = user.Name
	session.Values[middleware.SessionKeyIsAdmin] = user.Admin
	session.AddFlash(Flash{Kind: "success", Message: "Login successful!"})
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.RecordLogin("success")
	h.log.Info("admin logged in",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
	)

	c.Redirect(http.StatusFound, "/")
}

// Logout 清空会话并回到登录页
func (h *WebHandler) Logout(c *gin.Context) {
	session := h.session(c)
	session.Values = make(map[interface{}]interface{})
	session.AddFlash(Flash{Kind: "success", Message: "You have been logged out."})
	_ = session.Save(c.Request, c.Writer)

	c.Redirect(http.StatusFound, "/login")
}
