package httptransport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/middleware"
	"koemail/admin/internal/service"
)

// ListUsers 用户列表，支持邮箱子串搜索和分页
func (h *WebHandler) ListUsers(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.users.List(search, page)
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "users_list.html", gin.H{
		"Page": result,
	})
}

// ShowCreateUser 渲染新建用户表单
func (h *WebHandler) ShowCreateUser(c *gin.Context) {
	domains, err := h.domains.ListActive()
	if err != nil {
		h.log.Error("failed to load domains", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "user_form.html", gin.H{
		"Title":   "Create User",
		"Action":  "/users/create",
		"Domains": domains,
		"Form":    gin.H{"QuotaGiB": int64(1), "Active": true},
	})
}

// CreateUser 处理新建用户表单提交
func (h *WebHandler) CreateUser(c *gin.Context) {
	input, err := h.parseUserForm(c)
	if err != nil {
		h.renderUserFormError(c, "Create User", "/users/create", err)
		return
	}

	user, err := h.users.Create(*input)
	if err != nil {
		h.renderUserFormError(c, "Create User", "/users/create", err)
		return
	}

	h.metrics.UsersCreated.Inc()
	h.log.Info("user created",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "User "+user.Email+" created successfully!")
	c.Redirect(http.StatusFound, "/users")
}

// ShowEditUser 渲染编辑用户表单
func (h *WebHandler) ShowEditUser(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}

	domains, err := h.domains.ListActive()
	if err != nil {
		h.log.Error("failed to load domains", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "user_form.html", gin.H{
		"Title":   "Edit User",
		"Action":  "/users/" + strconv.FormatUint(uint64(user.ID), 10) + "/edit",
		"Domains": domains,
		"Edit":    true,
		"Form": gin.H{
			"Email":    user.Email,
			"Name":     user.Name,
			"DomainID": user.DomainID,
			"QuotaGiB": user.QuotaGiB(),
			"Admin":    user.Admin,
			"Active":   user.Active,
		},
	})
}

// EditUser 处理编辑用户表单提交。邮箱和所属域名不可修改，
// 密码留空表示保持原密码。
func (h *WebHandler) EditUser(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	action := "/users/" + strconv.FormatUint(uint64(user.ID), 10) + "/edit"

	quota, err := parseQuotaGiB(c.PostForm("quota"))
	if err != nil {
		h.renderUserFormError(c, "Edit User", action, err)
		return
	}

	updated, err := h.users.Update(service.UpdateUserInput{
		ID:       user.ID,
		Name:     strings.TrimSpace(c.PostForm("name")),
		QuotaGiB: quota,
		Password: c.PostForm("password"),
		Admin:    c.PostForm("admin") == "on",
		Active:   c.PostForm("active") == "on",
	})
	if err != nil {
		h.renderUserFormError(c, "Edit User", action, err)
		return
	}

	h.log.Info("user updated",
		zap.Uint("user_id", updated.ID),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "User "+updated.Email+" updated successfully!")
	c.Redirect(http.StatusFound, "/users")
}

// ShowDeleteUser 删除确认页
func (h *WebHandler) ShowDeleteUser(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}

	h.render(c, http.StatusOK, "user_confirm_delete.html", gin.H{
		"Target": user,
		"Self":   user.ID == middleware.CurrentUserID(c),
	})
}

// DeleteUser 删除用户及其用量记录。删除当前登录的账户会被拒绝。
func (h *WebHandler) DeleteUser(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}

	err := h.users.Delete(user.ID, middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrCannotDeleteSelf) {
			h.flash(c, "error", "You cannot delete your own account.")
			c.Redirect(http.StatusFound, "/users")
			return
		}
		h.log.Error("failed to delete user", zap.Uint("user_id", user.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.UsersDeleted.Inc()
	h.log.Info("user deleted",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "User "+user.Email+" deleted successfully!")
	c.Redirect(http.StatusFound, "/users")
}

// lookupUser 按路径参数取用户，不存在时渲染 404
func (h *WebHandler) lookupUser(c *gin.Context) (*domain.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return nil, false
	}

	user, err := h.users.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.String(http.StatusNotFound, "not found")
			return nil, false
		}
		h.log.Error("failed to load user", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return user, true
}

// parseUserForm 解析新建用户表单
func (h *WebHandler) parseUserForm(c *gin.Context) (*service.CreateUserInput, error) {
	quota, err := parseQuotaGiB(c.PostForm("quota"))
	if err != nil {
		return nil, err
	}

	domainID, err := strconv.ParseUint(c.PostForm("domain_id"), 10, 32)
	if err != nil {
		return nil, service.ErrDomainNotFound
	}

	return &service.CreateUserInput{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
		Name:     strings.TrimSpace(c.PostForm("name")),
		DomainID: uint(domainID),
		QuotaGiB: quota,
		Admin:    c.PostForm("admin") == "on",
		Active:   c.PostForm("active") == "on",
	}, nil
}

// parseQuotaGiB 解析配额字段。留空退回默认 1 GiB，
// 不是非负整数时报错。
func parseQuotaGiB(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	quota, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || quota < 0 {
		return 0, service.ErrInvalidQuota
	}
	return quota, nil
}

// renderUserFormError 带错误提示重新渲染用户表单，保留已填内容
func (h *WebHandler) renderUserFormError(c *gin.Context, title, action string, formErr error) {
	domains, err := h.domains.ListActive()
	if err != nil {
		h.log.Error("failed to load domains", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	message := formErrorMessage(formErr)
	if message == "" {
		h.log.Error("failed to save user", zap.Error(formErr))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	quota, _ := strconv.ParseInt(strings.TrimSpace(c.PostForm("quota")), 10, 64)
	domainID, _ := strconv.ParseUint(c.PostForm("domain_id"), 10, 32)

	h.render(c, http.StatusOK, "user_form.html", gin.H{
		"Title":   title,
		"Action":  action,
		"Domains": domains,
		"Edit":    title == "Edit User",
		"Error":   message,
		"Form": gin.H{
			"Email":    c.PostForm("email"),
			"Name":     c.PostForm("name"),
			"DomainID": uint(domainID),
			"QuotaGiB": quota,
			"Admin":    c.PostForm("admin") == "on",
			"Active":   c.PostForm("active") == "on",
		},
	})
}

// formErrorMessage 把用户可修正的校验错误翻译成页面提示，
// 其余错误返回空串交给 500 分支。
func formErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return "Email and password are required."
	case errors.Is(err, service.ErrInvalidQuota):
		return "Quota must be a non-negative number of GiB."
	case errors.Is(err, service.ErrEmailExists):
		return "Email already exists."
	case errors.Is(err, service.ErrDomainNotFound):
		return "Please select a valid domain."
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found."
	default:
		return ""
	}
}
