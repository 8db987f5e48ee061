package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// SessionName 管理后台的会话 Cookie 名
const SessionName = "koemail_admin"

// 会话里保存的键，与登录处理器约定一致
const (
	SessionKeyUserID    = "user_id"
	SessionKeyUserEmail = "user_email"
	SessionKeyUserName  = "user_name"
	SessionKeyIsAdmin   = "is_admin"
)

// SessionAuth 基于服务端会话的管理员守卫
type SessionAuth struct {
	store *sessions.CookieStore
}

// NewSessionAuth 创建会话守卫
func NewSessionAuth(store *sessions.CookieStore) *SessionAuth {
	return &SessionAuth{store: store}
}

// RequireAdmin 要求已登录的管理员会话。
// 未登录或无管理员标记时重定向到登录页，而不是返回错误。
func (m *SessionAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := m.store.Get(c.Request, SessionName)
		if err != nil {
			// 签名不合法的旧 Cookie 按未登录处理
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		userID, ok := session.Values[SessionKeyUserID].(uint)
		if !ok || userID == 0 {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		isAdmin, _ := session.Values[SessionKeyIsAdmin].(bool)
		if !isAdmin {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		// 把会话里的用户信息放进请求上下文
		c.Set(SessionKeyUserID, userID)
		c.Set(SessionKeyUserEmail, session.Values[SessionKeyUserEmail])
		c.Set(SessionKeyUserName, session.Values[SessionKeyUserName])
		c.Set(SessionKeyIsAdmin, isAdmin)

		c.Next()
	}
}

// CurrentUserID 从请求上下文取出当前登录管理员的 ID
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(SessionKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentUserName 从请求上下文取出当前登录管理员的显示名
func CurrentUserName(c *gin.Context) string {
	if v, ok := c.Get(SessionKeyUserName); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return "Administrator"
}
