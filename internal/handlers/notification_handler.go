package handlers

import (
	"errors"
	"strconv"

	"modulyn/internal/models"
	"modulyn/internal/services"
	"modulyn/pkg/jwt"
	"modulyn/pkg/pagination"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// AnnounceRequest 发送通知请求（组织管理员）
type AnnounceRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=system task lead event campaign membership registration"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message"`
}

// Announce 向组织内用户发送站内通知
func (h *NotificationHandler) Announce(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req AnnounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if req.Type == "" {
		req.Type = models.NotificationTypeSystem
	}

	notification, err := h.service.Create(userClaims.CurrentOrgID, req.UserID, req.Type, req.Title, req.Message)
	if err != nil {
		response.ServerError(c, "发送失败")
		return
	}

	response.Success(c, notification)
}

// List 获取当前用户的通知列表
func (h *NotificationHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	unreadOnly := c.Query("unread") == "true"
	pageParams := pagination.ParsePageParams(c)

	notifications, total, err := h.service.GetUserNotifications(
		userClaims.CurrentOrgID, userClaims.UserID, unreadOnly,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, notifications, pageInfo)
}

// UnreadCount 获取未读通知数
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	count, err := h.service.GetUnreadCount(userClaims.CurrentOrgID, userClaims.UserID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, gin.H{"unread": count})
}

// MarkRead 标记单条通知已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.MarkRead(userClaims.CurrentOrgID, userClaims.UserID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "通知不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, nil)
}

// MarkAllRead 标记全部通知已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	marked, err := h.service.MarkAllRead(userClaims.CurrentOrgID, userClaims.UserID)
	if err != nil {
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, gin.H{"marked": marked})
}

// Delete 删除通知
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, userClaims.UserID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "通知不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}

	response.Success(c, nil)
}
