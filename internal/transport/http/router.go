package httptransport

import (
	"html/template"
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/config"
	"koemail/admin/internal/health"
	"koemail/admin/internal/middleware"
	"koemail/admin/internal/monitoring"
	"koemail/admin/internal/service"
	"koemail/admin/internal/view"
	"koemail/admin/web"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config           *config.Config
	Sessions         *sessions.CookieStore
	AuthService      *auth.Service
	JWTManager       *auth.JWTManager
	DashboardService *service.DashboardService
	UserService      *service.UserService
	DomainService    *service.DomainService
	AliasService     *service.AliasService
	SettingsService  *service.SettingsService
	LoginThrottle    *middleware.LoginThrottle
	Metrics          *monitoring.Metrics
	Health           *health.HealthChecker
	Logger           *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) (*gin.Engine, error) {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.HTTPMetrics(deps.Metrics))

	// 页面模板从二进制内嵌的文件系统加载
	tmpl, err := template.New("").Funcs(view.FuncMap()).ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	webHandler := &WebHandler{
		sessions:  deps.Sessions,
		auth:      deps.AuthService,
		dashboard: deps.DashboardService,
		users:     deps.UserService,
		domains:   deps.DomainService,
		aliases:   deps.AliasService,
		settings:  deps.SettingsService,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
	apiHandler := NewAPIHandler(
		deps.AuthService,
		deps.JWTManager,
		deps.DashboardService,
		deps.UserService,
		deps.DomainService,
		deps.AliasService,
		deps.SettingsService,
		deps.Metrics,
		deps.Logger,
	)

	sessionAuth := middleware.NewSessionAuth(deps.Sessions)
	apiAuth := middleware.NewAPIAuth(deps.JWTManager, deps.Logger)
	loginThrottle := deps.LoginThrottle

	// 运维端点
	router.GET("/health", func(c *gin.Context) {
		if err := deps.Health.Check(); err != nil {
			c.String(http.StatusServiceUnavailable, "unhealthy")
			return
		}
		c.String(http.StatusOK, "OK")
	})
	router.GET("/health/live", gin.WrapH(deps.Health.LiveHandler()))
	router.GET("/health/ready", gin.WrapH(deps.Health.ReadyHandler()))
	router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))

	// 登录页不需要会话，POST 带限流
	router.GET("/login", webHandler.ShowLogin)
	router.POST("/login", loginThrottle.Handler(), webHandler.Login)
	router.GET("/logout", webHandler.Logout)

	// 管理页面，全部要求管理员会话
	pages := router.Group("/")
	pages.Use(sessionAuth.RequireAdmin())
	{
		pages.GET("/", webHandler.Dashboard)

		pages.GET("/users", webHandler.ListUsers)
		pages.GET("/users/create", webHandler.ShowCreateUser)
		pages.POST("/users/create", webHandler.CreateUser)
		pages.GET("/users/:id/edit", webHandler.ShowEditUser)
		pages.POST("/users/:id/edit", webHandler.EditUser)
		pages.GET("/users/:id/delete", webHandler.ShowDeleteUser)
		pages.POST("/users/:id/delete", webHandler.DeleteUser)

		pages.GET("/domains", webHandler.ListDomains)
		pages.GET("/domains/create", webHandler.ShowCreateDomain)
		pages.POST("/domains/create", webHandler.CreateDomain)
		pages.GET("/domains/:id/edit", webHandler.ShowEditDomain)
		pages.POST("/domains/:id/edit", webHandler.EditDomain)

		pages.GET("/aliases", webHandler.ListAliases)

		pages.GET("/settings", webHandler.ListSettings)
		pages.POST("/settings/:key/update", webHandler.UpdateSetting)
	}

	// JSON API：跨域 + Bearer 令牌
	api := router.Group("/api/v1")
	api.Use(gincors.New(corsConfig(deps.Config)))
	{
		api.POST("/auth/login", loginThrottle.Handler(), apiHandler.Login)

		protected := api.Group("/")
		protected.Use(apiAuth.RequireAdmin())
		{
			protected.GET("/auth/profile", apiHandler.Profile)
			protected.POST("/auth/change-password", apiHandler.ChangePassword)

			protected.GET("/stats", apiHandler.Stats)

			protected.GET("/users", apiHandler.ListUsers)
			protected.POST("/users", apiHandler.CreateUser)
			protected.PUT("/users/:id", apiHandler.UpdateUser)
			protected.DELETE("/users/:id", apiHandler.DeleteUser)

			protected.GET("/domains", apiHandler.ListDomains)
			protected.POST("/domains", apiHandler.CreateDomain)

			protected.GET("/aliases", apiHandler.ListAliases)

			protected.GET("/settings", apiHandler.ListSettings)
			protected.GET("/settings/:key", apiHandler.GetSetting)
			protected.PUT("/settings/:key", apiHandler.UpdateSetting)
		}
	}

	return router, nil
}

// corsConfig 组装 JSON API 的跨域配置
func corsConfig(cfg *config.Config) gincors.Config {
	corsCfg := gincors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 允许所有来源时不能同时允许携带凭证
	for _, origin := range corsCfg.AllowOrigins {
		if origin == "*" {
			corsCfg.AllowCredentials = false
			break
		}
	}
	return corsCfg
}
