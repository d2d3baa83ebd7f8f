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

type EventHandler struct {
	service *services.EventService
}

func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	Type        string     `json:"type" binding:"omitempty,oneof=meeting conference training webinar social"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `json:"location" binding:"max=255"`
	Capacity    int        `json:"capacity" binding:"omitempty,gte=0"`
}

// UpdateEventRequest 更新活动请求
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *string    `json:"type" binding:"omitempty,oneof=meeting conference training webinar social"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
	Capacity    *int       `json:"capacity" binding:"omitempty,gte=0"`
}

// UpdateEventStatusRequest 活动状态流转请求
type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=published registration_open registration_closed ongoing completed cancelled"`
}

// Create 创建活动
func (h *EventHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, event)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取活动详情
func (h *EventHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	event, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, event)
}

// List 获取活动列表
func (h *EventHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	eventType := c.Query("type")
	status := c.Query("status")
	keyword := c.Query("keyword")
	pageParams := pagination.ParsePageParams(c)

	events, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, eventType, status, keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, events, pageInfo)
}

// Update 更新活动基本信息
func (h *EventHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Capacity != nil {
		updates["capacity"] = float64(*req.Capacity)
	}

	event, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, event)
}

// UpdateStatus 流转活动状态
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.service.UpdateStatus(userClaims.CurrentOrgID, uint(id), req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, event)
}

// Register 报名活动
func (h *EventHandler) Register(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	registration, err := h.service.Register(userClaims.CurrentOrgID, uint(id), userClaims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	if registration.Status == models.RegistrationWaitlist {
		response.SuccessWithMessage(c, "名额已满，已进入候补队列", registration)
		return
	}
	response.SuccessWithMessage(c, "报名成功", registration)
}

// CancelRegistration 取消报名
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.CancelRegistration(userClaims.CurrentOrgID, uint(id), userClaims.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "报名记录不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "已取消报名", nil)
}

// ConfirmRegistration 确认报名
func (h *EventHandler) ConfirmRegistration(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	registration, err := h.service.ConfirmRegistration(userClaims.CurrentOrgID, uint(id), userClaims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "报名记录不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, registration)
}

// CheckIn 凭签到码签到
func (h *EventHandler) CheckIn(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	registration, err := h.service.CheckIn(userClaims.CurrentOrgID, uint(id), req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "签到码无效")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "签到成功", registration)
}

// ListRegistrations 获取活动报名列表
func (h *EventHandler) ListRegistrations(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	status := c.Query("status")
	registrations, err := h.service.GetRegistrations(userClaims.CurrentOrgID, uint(id), status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, registrations)
}

// Delete 删除活动
func (h *EventHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "活动不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}
