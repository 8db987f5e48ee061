package httptransport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/domain"
	"koemail/admin/internal/middleware"
	"koemail/admin/internal/monitoring"
	"koemail/admin/internal/service"
)

// APIHandler 面向自动化工具的 JSON API 处理器
type APIHandler struct {
	auth      *auth.Service
	jwt       *auth.JWTManager
	dashboard *service.DashboardService
	users     *service.UserService
	domains   *service.DomainService
	aliases   *service.AliasService
	settings  *service.SettingsService
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(
	authService *auth.Service,
	jwtManager *auth.JWTManager,
	dashboard *service.DashboardService,
	users *service.UserService,
	domains *service.DomainService,
	aliases *service.AliasService,
	settings *service.SettingsService,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *APIHandler {
	return &APIHandler{
		auth:      authService,
		jwt:       jwtManager,
		dashboard: dashboard,
		users:     users,
		domains:   domains,
		aliases:   aliases,
		settings:  settings,
		metrics:   metrics,
		log:       log,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 签发 JSON API 的访问令牌
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin("failure")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		h.log.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.metrics.RecordLogin("success")
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(h.jwt.Expiry().Seconds()),
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Profile 当前令牌对应的账户信息
func (h *APIHandler) Profile(c *gin.Context) {
	user, err := h.users.Get(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword 修改当前账户密码，先校验旧密码
func (h *APIHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword are required"})
		return
	}

	user, err := h.users.Get(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		return
	}

	if err := h.users.ChangePassword(user.ID, req.NewPassword); err != nil {
		h.log.Error("failed to change password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.log.Info("password changed", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// Stats 仪表盘统计
func (h *APIHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats()
	if err != nil {
		h.log.Error("failed to load stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers 用户列表，带配额用量，分页参数与页面一致
func (h *APIHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.users.List(c.Query("search"), page)
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	users := make([]gin.H, 0, len(result.Users))
	for i := range result.Users {
		u := &result.Users[i]
		users = append(users, gin.H{
			"id":        u.ID,
			"email":     u.Email,
			"name":      u.Name,
			"domain":    u.DomainName,
			"active":    u.Active,
			"admin":     u.Admin,
			"createdAt": u.CreatedAt,
			"lastLogin": u.LastLogin,
			"quota": gin.H{
				"limit":        u.QuotaBytes,
				"used":         u.BytesUsed,
				"messageCount": u.MessageCount,
				"percentage":   u.UsagePercent(),
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"total":      result.Total,
	})
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	DomainID uint   `json:"domainId" binding:"required"`
	QuotaGiB *int64 `json:"quotaGiB"` // 缺省 1 GiB
	Admin    bool   `json:"admin"`
	Active   *bool  `json:"active"` // 缺省 true
}

// CreateUser 创建邮箱账户
func (h *APIHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and domainId are required"})
		return
	}

	quota := int64(1)
	if req.QuotaGiB != nil {
		quota = *req.QuotaGiB
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := h.users.Create(service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		DomainID: req.DomainID,
		QuotaGiB: quota,
		Admin:    req.Admin,
		Active:   active,
	})
	if err != nil {
		if message := apiUserErrorMessage(err); message != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.metrics.UsersCreated.Inc()
	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	QuotaGiB *int64  `json:"quotaGiB"`
	Password *string `json:"password"`
	Admin    *bool   `json:"admin"`
	Active   *bool   `json:"active"`
}

// UpdateUser 部分更新用户，只改请求里出现的字段
func (h *APIHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	input := service.UpdateUserInput{
		ID:       user.ID,
		Name:     user.Name,
		QuotaGiB: user.QuotaGiB(),
		Admin:    user.Admin,
		Active:   user.Active,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.QuotaGiB != nil {
		input.QuotaGiB = *req.QuotaGiB
	}
	if req.Password != nil {
		input.Password = *req.Password
	}
	if req.Admin != nil {
		input.Admin = *req.Admin
	}
	if req.Active != nil {
		input.Active = *req.Active
	}

	updated, err := h.users.Update(input)
	if err != nil {
		if message := apiUserErrorMessage(err); message != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}
		h.log.Error("failed to update user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteUser 删除用户及其用量记录，删除自己会被拒绝
func (h *APIHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	err = h.users.Delete(uint(id), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.log.Error("failed to delete user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	h.metrics.UsersDeleted.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// apiUserErrorMessage 把用户服务的校验错误翻译成 API 错误消息，
// 其余错误返回空串交给 500 分支
func apiUserErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return "email and password are required"
	case errors.Is(err, service.ErrInvalidQuota):
		return "quota must be a non-negative number of GiB"
	case errors.Is(err, service.ErrEmailExists):
		return "email already exists"
	case errors.Is(err, service.ErrDomainNotFound):
		return "domain not found"
	default:
		return ""
	}
}

// ListDomains 域名列表，附带用户数
func (h *APIHandler) ListDomains(c *gin.Context) {
	domains, err := h.domains.List()
	if err != nil {
		h.log.Error("failed to list domains", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

type createDomainRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"` // 缺省 true
}

// CreateDomain 创建域名
func (h *APIHandler) CreateDomain(c *gin.Context) {
	var req createDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	d, err := h.domains.Create(req.Name, req.Description, active)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDomainNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		case errors.Is(err, service.ErrDomainExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "domain already exists"})
		default:
			h.log.Error("failed to create domain", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	h.metrics.DomainsCreated.Inc()
	c.JSON(http.StatusCreated, d)
}

// ListAliases 别名列表
func (h *APIHandler) ListAliases(c *gin.Context) {
	aliases, err := h.aliases.List()
	if err != nil {
		h.log.Error("failed to list aliases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"aliases": aliases})
}

// ListSettings 全部设置的平铺列表
func (h *APIHandler) ListSettings(c *gin.Context) {
	settings, err := h.settings.List()
	if err != nil {
		h.log.Error("failed to list settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if settings == nil {
		settings = []domain.SystemSetting{}
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// GetSetting 单个设置
func (h *APIHandler) GetSetting(c *gin.Context) {
	setting, err := h.settings.Get(c.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		h.log.Error("failed to load setting", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

type updateSettingRequest struct {
	Value *string `json:"value" binding:"required"`
}

// UpdateSetting 覆盖单个设置值
func (h *APIHandler) UpdateSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	setting, err := h.settings.Update(c.Param("key"), *req.Value)
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		h.log.Error("failed to update setting", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.metrics.SettingsUpdated.Inc()
	c.JSON(http.StatusOK, setting)
}
