package handlers

import (
	"errors"
	"strconv"
	"time"

	"modulyn/internal/models"
	"modulyn/internal/services"
	"modulyn/pkg/jwt"
	"modulyn/pkg/pagination"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmailHandler struct {
	service *services.EmailService
}

func NewEmailHandler(service *services.EmailService) *EmailHandler {
	return &EmailHandler{service: service}
}

// CreateTemplateRequest 创建邮件模板请求
type CreateTemplateRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Subject  string `json:"subject" binding:"required,max=200"`
	Body     string `json:"body"`
	Category string `json:"category" binding:"max=32"`
}

// UpdateTemplateRequest 更新邮件模板请求
type UpdateTemplateRequest struct {
	Name     *string `json:"name"`
	Subject  *string `json:"subject"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

// CreateCampaignRequest 创建营销活动请求
type CreateCampaignRequest struct {
	TemplateID uint   `json:"template_id" binding:"required"`
	Name       string `json:"name" binding:"required,max=100"`
}

// ScheduleCampaignRequest 预约发送请求
type ScheduleCampaignRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// MetricsRequest 指标上报请求
type MetricsRequest struct {
	Sent         int64 `json:"sent" binding:"gte=0"`
	Delivered    int64 `json:"delivered" binding:"gte=0"`
	Opened       int64 `json:"opened" binding:"gte=0"`
	Clicked      int64 `json:"clicked" binding:"gte=0"`
	Bounced      int64 `json:"bounced" binding:"gte=0"`
	Unsubscribed int64 `json:"unsubscribed" binding:"gte=0"`
	Correction   bool  `json:"correction"` // 允许向下修正
}

// QueueStatus 查询投递队列积压
func (h *EmailHandler) QueueStatus(c *gin.Context) {
	length, err := h.service.QueueLength()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"pending": length})
}

// ========== 模板 ==========

// CreateTemplate 创建邮件模板
func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	template := &models.EmailTemplate{
		Name:     req.Name,
		Subject:  req.Subject,
		Body:     req.Body,
		Category: req.Category,
	}

	created, err := h.service.CreateTemplate(userClaims.CurrentOrgID, userClaims.UserID, template)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetTemplate 获取模板详情
func (h *EmailHandler) GetTemplate(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	template, err := h.service.GetTemplate(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "模板不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, template)
}

// ListTemplates 获取模板列表
func (h *EmailHandler) ListTemplates(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	category := c.Query("category")
	keyword := c.Query("keyword")
	pageParams := pagination.ParsePageParams(c)

	templates, total, err := h.service.GetTemplatesWithPage(
		userClaims.CurrentOrgID, category, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, templates, pageInfo)
}

// UpdateTemplate 更新模板
func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}

	template, err := h.service.UpdateTemplate(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "模板不存在")
			return
		}
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, template)
}

// DeleteTemplate 删除模板
func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.DeleteTemplate(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "模板不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}

// ========== 活动 ==========

// CreateCampaign 创建营销活动
func (h *EmailHandler) CreateCampaign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	campaign := &models.EmailCampaign{
		TemplateID: req.TemplateID,
		Name:       req.Name,
	}

	created, err := h.service.CreateCampaign(userClaims.CurrentOrgID, userClaims.UserID, campaign)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetCampaign 获取活动详情
func (h *EmailHandler) GetCampaign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	campaign, err := h.service.GetCampaign(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, campaign)
}

// ListCampaigns 获取活动列表
func (h *EmailHandler) ListCampaigns(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	status := c.Query("status")
	keyword := c.Query("keyword")
	pageParams := pagination.ParsePageParams(c)

	campaigns, total, err := h.service.GetCampaignsWithPage(
		userClaims.CurrentOrgID, status, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, campaigns, pageInfo)
}

// ScheduleCampaign 预约发送
func (h *EmailHandler) ScheduleCampaign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req ScheduleCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	campaign, err := h.service.Schedule(userClaims.CurrentOrgID, uint(id), req.ScheduledAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, campaign)
}

// SendCampaign 立即发送
func (h *EmailHandler) SendCampaign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	campaign, err := h.service.Send(userClaims.CurrentOrgID, uint(id), userClaims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "活动已进入发送队列", campaign)
}

// CancelCampaign 取消活动
func (h *EmailHandler) CancelCampaign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	campaign, err := h.service.Cancel(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, campaign)
}

// RecordMetrics 上报投递指标
func (h *EmailHandler) RecordMetrics(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req MetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	incoming := &models.CampaignMetrics{
		Sent:         req.Sent,
		Delivered:    req.Delivered,
		Opened:       req.Opened,
		Clicked:      req.Clicked,
		Bounced:      req.Bounced,
		Unsubscribed: req.Unsubscribed,
	}

	metrics, err := h.service.RecordMetrics(userClaims.CurrentOrgID, uint(id), incoming, req.Correction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "指标归集失败")
		return
	}

	response.Success(c, metrics)
}

// MarkCampaignSent 标记活动投递完成（队列消费方回调）
func (h *EmailHandler) MarkCampaignSent(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	campaign, err := h.service.MarkSent(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, campaign)
}
