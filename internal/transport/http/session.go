package httptransport

import (
	"encoding/gob"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"koemail/admin/internal/middleware"
)

// Flash 一次性提示消息，渲染后即从会话移除
type Flash struct {
	Kind    string // "success" 或 "error"
	Message string
}

func init() {
	// gorilla/sessions 用 gob 序列化会话值
	gob.Register(Flash{})
	gob.Register(uint(0))
}

// session 取出当前请求的会话，Cookie 损坏时退回空会话
func (h *WebHandler) session(c *gin.Context) *sessions.Session {
	session, err := h.sessions.Get(c.Request, middleware.SessionName)
	if err != nil {
		session, _ = h.sessions.New(c.Request, middleware.SessionName)
	}
	return session
}

// flash 往会话追加一条一次性提示
func (h *WebHandler) flash(c *gin.Context, kind, message string) {
	session := h.session(c)
	session.AddFlash(Flash{Kind: kind, Message: message})
	_ = session.Save(c.Request, c.Writer)
}

// takeFlashes 取走并清空全部提示
func (h *WebHandler) takeFlashes(c *gin.Context) []Flash {
	session := h.session(c)
	raw := session.Flashes()
	if len(raw) > 0 {
		_ = session.Save(c.Request, c.Writer)
	}

	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// render 渲染页面模板，自动附上当前用户名和待展示的提示
func (h *WebHandler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if middleware.CurrentUserID(c) != 0 {
		data["UserName"] = middleware.CurrentUserName(c)
	}
	data["Flashes"] = h.takeFlashes(c)
	c.HTML(status, name, data)
}
