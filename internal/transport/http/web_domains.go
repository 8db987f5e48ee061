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

// ListDomains 域名列表，附带各自的用户数
func (h *WebHandler) ListDomains(c *gin.Context) {
	domains, err := h.domains.List()
	if err != nil {
		h.log.Error("failed to list domains", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.render(c, http.StatusOK, "domains_list.html", gin.H{
		"Domains": domains,
	})
}

// ShowCreateDomain 渲染新建域名表单
func (h *WebHandler) ShowCreateDomain(c *gin.Context) {
	h.render(c, http.StatusOK, "domain_form.html", gin.H{
		"Title":  "Create Domain",
		"Action": "/domains/create",
		"Form":   gin.H{"Active": true},
	})
}

// CreateDomain 处理新建域名表单提交
func (h *WebHandler) CreateDomain(c *gin.Context) {
	name := c.PostForm("domain")
	description := strings.TrimSpace(c.PostForm("description"))
	active := c.PostForm("active") == "on"

	d, err := h.domains.Create(name, description, active)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, service.ErrDomainNameRequired):
			message = "Domain name is required."
		case errors.Is(err, service.ErrDomainExists):
			message = "Domain already exists."
		}
		if message != "" {
			h.render(c, http.StatusOK, "domain_form.html", gin.H{
				"Title":  "Create Domain",
				"Action": "/domains/create",
				"Error":  message,
				"Form":   gin.H{"Domain": name, "Description": description, "Active": active},
			})
			return
		}
		h.log.Error("failed to create domain", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.DomainsCreated.Inc()
	h.log.Info("domain created",
		zap.String("domain", d.Name),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "Domain "+d.Name+" created successfully!")
	c.Redirect(http.StatusFound, "/domains")
}

// ShowEditDomain 渲染编辑域名表单。域名本身不可改，只展示。
func (h *WebHandler) ShowEditDomain(c *gin.Context) {
	d, ok := h.lookupDomain(c)
	if !ok {
		return
	}

	h.render(c, http.StatusOK, "domain_form.html", gin.H{
		"Title":  "Edit Domain",
		"Action": "/domains/" + strconv.FormatUint(uint64(d.ID), 10) + "/edit",
		"Edit":   true,
		"Form": gin.H{
			"Domain":      d.Name,
			"Description": d.Description,
			"Active":      d.Active,
		},
	})
}

// EditDomain 处理编辑域名表单提交，只有描述和激活标记可变
func (h *WebHandler) EditDomain(c *gin.Context) {
	d, ok := h.lookupDomain(c)
	if !ok {
		return
	}

	updated, err := h.domains.Update(d.ID,
		strings.TrimSpace(c.PostForm("description")),
		c.PostForm("active") == "on",
	)
	if err != nil {
		h.log.Error("failed to update domain", zap.Uint("domain_id", d.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.Info("domain updated",
		zap.String("domain", updated.Name),
		zap.Uint("operator_id", middleware.CurrentUserID(c)),
	)

	h.flash(c, "success", "Domain "+updated.Name+" updated successfully!")
	c.Redirect(http.StatusFound, "/domains")
}

// lookupDomain 按路径参数取域名，不存在时渲染 404
func (h *WebHandler) lookupDomain(c *gin.Context) (*domain.Domain, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return nil, false
	}

	d, err := h.domains.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			c.String(http.StatusNotFound, "not found")
			return nil, false
		}
		h.log.Error("failed to load domain", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return d, true
}
