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

type DealHandler struct {
	service *services.DealService
}

func NewDealHandler(service *services.DealService) *DealHandler {
	return &DealHandler{service: service}
}

// CreateDealRequest 创建交易请求
type CreateDealRequest struct {
	Title             string     `json:"title" binding:"required,max=200"`
	Stage             string     `json:"stage" binding:"omitempty,oneof=prospecting qualification proposal negotiation"`
	Value             float64    `json:"value" binding:"omitempty,gte=0"`
	Currency          string     `json:"currency" binding:"omitempty,len=3"`
	Probability       int        `json:"probability" binding:"omitempty,gte=0,lte=100"`
	AssignedTo        *uint      `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// UpdateDealRequest 更新交易请求
type UpdateDealRequest struct {
	Title             *string    `json:"title"`
	Value             *float64   `json:"value" binding:"omitempty,gte=0"`
	Currency          *string    `json:"currency" binding:"omitempty,len=3"`
	Probability       *int       `json:"probability" binding:"omitempty,gte=0,lte=100"`
	AssignedTo        *uint      `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// UpdateDealStageRequest 交易阶段流转请求
type UpdateDealStageRequest struct {
	Stage string `json:"stage" binding:"required,oneof=prospecting qualification proposal negotiation closed_won closed_lost"`
}

// Create 创建交易
func (h *DealHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	deal := &models.Deal{
		Title:             req.Title,
		Stage:             req.Stage,
		Value:             req.Value,
		Currency:          req.Currency,
		Probability:       req.Probability,
		AssignedTo:        req.AssignedTo,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, deal)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取交易详情
func (h *DealHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	deal, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "交易不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, deal)
}

// List 获取交易列表
func (h *DealHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	stage := c.Query("stage")
	keyword := c.Query("keyword")
	assignedTo, _ := strconv.ParseUint(c.Query("assigned_to"), 10, 32)
	pageParams := pagination.ParsePageParams(c)

	deals, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, stage, uint(assignedTo), keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, deals, pageInfo)
}

// GetByStage 按阶段查询交易
func (h *DealHandler) GetByStage(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	deals, err := h.service.GetByStage(userClaims.CurrentOrgID, c.Param("stage"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, deals)
}

// GetByValueRange 按金额范围查询交易
func (h *DealHandler) GetByValueRange(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	min, _ := strconv.ParseFloat(c.Query("min"), 64)
	max, _ := strconv.ParseFloat(c.Query("max"), 64)

	deals, err := h.service.GetByValueRange(userClaims.CurrentOrgID, min, max)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, deals)
}

// Update 更新交易基本信息
func (h *DealHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
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

	deal, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "交易不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, deal)
}

// UpdateStage 流转交易阶段
func (h *DealHandler) UpdateStage(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateDealStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	deal, err := h.service.UpdateStage(userClaims.CurrentOrgID, uint(id), req.Stage)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "交易不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, deal)
}

// Delete 删除交易
func (h *DealHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "交易不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}
