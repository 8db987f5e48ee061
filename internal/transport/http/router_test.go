package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/config"
	"koemail/admin/internal/domain"
	"koemail/admin/internal/health"
	"koemail/admin/internal/middleware"
	"koemail/admin/internal/monitoring"
	"koemail/admin/internal/service"
	"koemail/admin/internal/storage/memory"
)

// promauto 注册到全局 Registry，整个测试进程只能创建一次
var testMetrics = monitoring.NewMetrics()

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	return newThrottledTestEnv(t, 600, 100)
}

// newThrottledTestEnv 构建带指定登录限流参数的测试环境
func newThrottledTestEnv(t *testing.T, perMinute, burst int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := zap.NewNop()

	cfg := &config.Config{
		Session:  config.SessionConfig{Secret: strings.Repeat("s", 32), MaxAge: 3600},
		JWT:      config.JWTConfig{Secret: strings.Repeat("j", 32), Issuer: "test", Expiry: time.Hour},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"*"}},
		Throttle: config.ThrottleConfig{PerMinute: perMinute, Burst: burst},
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{Path: "/", MaxAge: cfg.Session.MaxAge, HttpOnly: true}

	loginThrottle := middleware.NewLoginThrottle(cfg.Throttle.PerMinute, cfg.Throttle.Burst)
	t.Cleanup(loginThrottle.Stop)

	router, err := NewRouter(RouterDependencies{
		Config:           cfg,
		Sessions:         sessionStore,
		AuthService:      auth.NewService(store),
		JWTManager:       auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry),
		DashboardService: service.NewDashboardService(store),
		UserService:      service.NewUserService(store),
		DomainService:    service.NewDomainService(store),
		AliasService:     service.NewAliasService(store),
		SettingsService:  service.NewSettingsService(store),
		LoginThrottle:    loginThrottle,
		Metrics:          testMetrics,
		Health:           health.NewHealthChecker(store, log),
		Logger:           log,
	})
	require.NoError(t, err)

	return &testEnv{router: router, store: store}
}

func (e *testEnv) seedAdmin(t *testing.T, email, password string) *domain.User {
	t.Helper()

	d := &domain.Domain{Name: "example.com", Active: true}
	require.NoError(t, e.store.CreateDomain(d))

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Admin",
		DomainID:     d.ID,
		QuotaBytes:   domain.GiBToBytes(1),
		Active:       true,
		Admin:        true,
	}
	require.NoError(t, e.store.CreateUserWithQuota(user))
	return user
}

// login 执行表单登录并返回会话 Cookie
func (e *testEnv) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()

	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	return w.Result().Cookies()
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/users", "/domains", "/aliases", "/settings"} {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusFound, w.Code, "path %s", path)
		assert.Equal(t, "/login", w.Header().Get("Location"), "path %s", path)
	}
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sign In")
}

func TestLoginFailureShowsGenericError(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	// 登录失败重新渲染表单，不泄露账户是否存在
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")
}

func TestLoginAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")
	cookies := env.login(t, "admin@example.com", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dashboard")
	assert.Contains(t, w.Body.String(), "Active Users")
}

func TestNonAdminSessionRejected(t *testing.T) {
	env := newTestEnv(t)

	d := &domain.Domain{Name: "example.com", Active: true}
	require.NoError(t, env.store.CreateDomain(d))

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	require.NoError(t, env.store.CreateUserWithQuota(&domain.User{
		Email: "user@example.com", PasswordHash: hash, DomainID: d.ID, Active: true, Admin: false,
	}))

	form := url.Values{"email": {"user@example.com"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	// 非管理员被当作凭证错误处理
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")
	cookies := env.login(t, "admin@example.com", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// 登出后的 Cookie 不再能访问管理页面
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestUpdateSetting_UnknownKey404(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")
	cookies := env.login(t, "admin@example.com", "secret123")

	form := url.Values{"value": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "/settings/no_such_key/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_LoginAndStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")

	body := `{"email":"admin@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Domains)
}

func TestAPI_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_InvalidLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")

	body := `{"email":"admin@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// apiToken 通过 JSON 登录拿到 Bearer 令牌
func (e *testEnv) apiToken(t *testing.T, email, password string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

// apiRequest 构造带令牌的 JSON 请求
func apiRequest(method, path, token, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAPI_SettingsRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")
	env.store.CreateSetting(domain.SystemSetting{Key: "smtp_host", Value: "old.example.com", Type: "string"})
	token := env.apiToken(t, "admin@example.com", "secret123")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPut, "/api/v1/settings/smtp_host", token, `{"value":"new.example.com"}`))
	require.Equal(t, http.StatusOK, w.Code)

	setting, err := env.store.GetSetting("smtp_host")
	require.NoError(t, err)
	assert.Equal(t, "new.example.com", setting.Value)
}

// 突发额度用尽后登录接口返回 429
func TestLoginThrottle_Returns429(t *testing.T) {
	env := newThrottledTestEnv(t, 1, 2)

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		lastCode = w.Code

		if i < 2 {
			// 突发额度内正常处理（凭证错误重新渲染表单）
			assert.Equal(t, http.StatusOK, w.Code, "attempt %d", i+1)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

// 同一限流配置对 JSON 登录接口同样生效
func TestLoginThrottle_AppliesToAPILogin(t *testing.T) {
	env := newThrottledTestEnv(t, 1, 1)

	body := `{"email":"admin@example.com","password":"wrong"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	}
}

// 签名有效但没有管理员声明的令牌被拒绝
func TestAPI_NonAdminTokenForbidden(t *testing.T) {
	env := newTestEnv(t)

	manager := auth.NewJWTManager(strings.Repeat("j", 32), "test", time.Hour)
	token, err := manager.GenerateToken(&domain.User{ID: 7, Email: "user@example.com", Admin: false})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodGet, "/api/v1/stats", token, ""))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	body := `{"email":"new@example.com","password":"secret123","name":"New User","domainId":` + strconv.Itoa(int(admin.DomainID)) + `,"quotaGiB":2}`
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/users", token, body))
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, int64(2*1073741824), created.QuotaBytes)
	assert.True(t, created.Active) // 缺省激活

	// 用量记录同步创建
	usage, err := env.store.GetQuotaUsage(created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage.BytesUsed)

	// 重复邮箱返回 400
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/users", token, body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email already exists")
}

func TestAPI_UpdateUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	// 只更新提交的字段，其余保持不变
	body := `{"quotaGiB":5}`
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPut, "/api/v1/users/"+strconv.Itoa(int(admin.ID)), token, body))
	require.Equal(t, http.StatusOK, w.Code)

	reloaded, err := env.store.GetUserByID(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5*1073741824), reloaded.QuotaBytes)
	assert.Equal(t, "Admin", reloaded.Name)
	assert.True(t, reloaded.Admin)

	// 不存在的用户返回 404
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPut, "/api/v1/users/999", token, body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	// 删除自己被拒绝
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodDelete, "/api/v1/users/"+strconv.Itoa(int(admin.ID)), token, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot delete your own account")

	other := &domain.User{
		Email: "other@example.com", PasswordHash: "h", DomainID: admin.DomainID, Active: true,
	}
	require.NoError(t, env.store.CreateUserWithQuota(other))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodDelete, "/api/v1/users/"+strconv.Itoa(int(other.ID)), token, ""))
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.store.GetUserByID(other.ID)
	assert.Error(t, err)
}

func TestAPI_CreateDomain(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/domains", token, `{"name":"New.Example.ORG"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Domain
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "new.example.org", created.Name)
	assert.True(t, created.Active)

	// 重复域名返回 400
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/domains", token, `{"name":"new.example.org"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "domain already exists")
}

func TestAPI_Profile(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodGet, "/api/v1/auth/profile", token, ""))
	require.Equal(t, http.StatusOK, w.Code)

	var profile domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, admin.ID, profile.ID)
	assert.Equal(t, "admin@example.com", profile.Email)

	// 密码哈希绝不出现在响应里
	assert.NotContains(t, w.Body.String(), admin.PasswordHash)
}

func TestAPI_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", "secret123")
	token := env.apiToken(t, "admin@example.com", "secret123")

	// 旧密码错误时拒绝且哈希不变
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/auth/change-password", token,
		`{"currentPassword":"wrong","newPassword":"brandnew456"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "current password is incorrect")

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, apiRequest(http.MethodPost, "/api/v1/auth/change-password", token,
		`{"currentPassword":"secret123","newPassword":"brandnew456"}`))
	require.Equal(t, http.StatusOK, w.Code)

	reloaded, err := env.store.GetUserByID(admin.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("brandnew456", reloaded.PasswordHash))
	assert.False(t, auth.CheckPassword("secret123", reloaded.PasswordHash))
}
