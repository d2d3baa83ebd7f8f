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

type PropertyHandler struct {
	service *services.PropertyService
}

func NewPropertyHandler(service *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// CreatePropertyRequest 创建房源请求
type CreatePropertyRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Address     string  `json:"address" binding:"required,max=255"`
	City        string  `json:"city" binding:"max=64"`
	Type        string  `json:"type" binding:"omitempty,oneof=residential commercial land industrial"`
	Status      string  `json:"status" binding:"omitempty,oneof=available under_contract sold rented off_market"`
	Price       float64 `json:"price" binding:"omitempty,gte=0"`
	Area        float64 `json:"area" binding:"omitempty,gte=0"`
	Description string  `json:"description"`
}

// UpdatePropertyRequest 更新房源请求
type UpdatePropertyRequest struct {
	Title       *string  `json:"title"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Type        *string  `json:"type" binding:"omitempty,oneof=residential commercial land industrial"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Area        *float64 `json:"area" binding:"omitempty,gte=0"`
	Description *string  `json:"description"`
}

// UpdatePropertyStatusRequest 房源状态变更请求
type UpdatePropertyStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available under_contract sold rented off_market"`
}

// Create 创建房源
func (h *PropertyHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property := &models.Property{
		Title:       req.Title,
		Address:     req.Address,
		City:        req.City,
		Type:        req.Type,
		Status:      req.Status,
		Price:       req.Price,
		Area:        req.Area,
		Description: req.Description,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, property)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取房源详情
func (h *PropertyHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	property, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "房源不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, property)
}

// List 获取房源列表
func (h *PropertyHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	propertyType := c.Query("type")
	status := c.Query("status")
	city := c.Query("city")
	keyword := c.Query("keyword")
	minPrice, _ := strconv.ParseFloat(c.Query("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("max_price"), 64)
	pageParams := pagination.ParsePageParams(c)

	properties, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, propertyType, status, city, minPrice, maxPrice, keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, properties, pageInfo)
}

// GetActive 获取在售房源
func (h *PropertyHandler) GetActive(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	properties, err := h.service.GetActive(userClaims.CurrentOrgID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, properties)
}

// Update 更新房源
func (h *PropertyHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Area != nil {
		updates["area"] = *req.Area
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	property, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "房源不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, property)
}

// UpdateStatus 变更房源状态
func (h *PropertyHandler) UpdateStatus(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdatePropertyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property, err := h.service.UpdateStatus(userClaims.CurrentOrgID, uint(id), req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "房源不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, property)
}

// Delete 删除房源
func (h *PropertyHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "房源不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}

	response.Success(c, nil)
}
