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

type LeadHandler struct {
	service *services.LeadService
}

func NewLeadHandler(service *services.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// CreateLeadRequest 创建线索请求
type CreateLeadRequest struct {
	ContactID         uint       `json:"contact_id" binding:"required"`
	Title             string     `json:"title" binding:"required,max=200"`
	Source            string     `json:"source"`
	Value             float64    `json:"value" binding:"omitempty,gte=0"`
	Probability       int        `json:"probability" binding:"omitempty,gte=0,lte=100"`
	AssignedTo        *uint      `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// UpdateLeadRequest 更新线索请求
type UpdateLeadRequest struct {
	Title             *string    `json:"title"`
	Source            *string    `json:"source"`
	Value             *float64   `json:"value" binding:"omitempty,gte=0"`
	Probability       *int       `json:"probability" binding:"omitempty,gte=0,lte=100"`
	AssignedTo        *uint      `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// UpdateLeadStatusRequest 线索状态流转请求
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted qualified proposal_sent negotiation won lost"`
}

// Create 创建线索
func (h *LeadHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	lead := &models.Lead{
		ContactID:         req.ContactID,
		Title:             req.Title,
		Source:            req.Source,
		Value:             req.Value,
		Probability:       req.Probability,
		AssignedTo:        req.AssignedTo,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, lead)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取线索详情
func (h *LeadHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	lead, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "线索不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, lead)
}

// List 获取线索列表
func (h *LeadHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	status := c.Query("status")
	source := c.Query("source")
	keyword := c.Query("keyword")
	assignedTo, _ := strconv.ParseUint(c.Query("assigned_to"), 10, 32)
	pageParams := pagination.ParsePageParams(c)

	leads, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, status, source, uint(assignedTo), keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, leads, pageInfo)
}

// GetActive 获取仍在跟进中的线索
func (h *LeadHandler) GetActive(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	leads, err := h.service.GetActive(userClaims.CurrentOrgID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, leads)
}

// Update 更新线索基本信息
func (h *LeadHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.Probability != nil {
		updates["probability"] = *req.Probability
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *req.ExpectedCloseDate
	}

	lead, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "线索不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, lead)
}

// UpdateStatus 流转线索状态
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	lead, err := h.service.UpdateStatus(userClaims.CurrentOrgID, uint(id), req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "线索不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, lead)
}

// Convert 将线索转化为商机
func (h *LeadHandler) Convert(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	deal, err := h.service.ConvertToDeal(userClaims.CurrentOrgID, uint(id), userClaims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "线索不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "线索转化成功", deal)
}

// Delete 删除线索
func (h *LeadHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "线索不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}
