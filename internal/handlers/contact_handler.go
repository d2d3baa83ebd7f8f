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

type ContactHandler struct {
	service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// CreateContactRequest 创建联系人请求
type CreateContactRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Company    *string `json:"company"`
	Type       string  `json:"type" binding:"omitempty,oneof=prospect client partner vendor"`
	Status     string  `json:"status" binding:"omitempty,oneof=active inactive lead"`
	AssignedTo *uint   `json:"assigned_to"`
	Notes      string  `json:"notes"`
}

// UpdateContactRequest 更新联系人请求，未提供的字段不变
type UpdateContactRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Type    *string `json:"type" binding:"omitempty,oneof=prospect client partner vendor"`
	Status  *string `json:"status" binding:"omitempty,oneof=active inactive lead"`
	Notes   *string `json:"notes"`
}

// Create 创建联系人
func (h *ContactHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	contact := &models.Contact{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Type:       req.Type,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, contact)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取联系人详情
func (h *ContactHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	contact, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "联系人不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, contact)
}

// List 获取联系人列表
func (h *ContactHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	contactType := c.Query("type")
	status := c.Query("status")
	keyword := c.Query("keyword")
	assignedTo, _ := strconv.ParseUint(c.Query("assigned_to"), 10, 32)
	pageParams := pagination.ParsePageParams(c)

	contacts, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, contactType, status, uint(assignedTo), keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, contacts, pageInfo)
}

// GetByType 按类型查询联系人
func (h *ContactHandler) GetByType(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	contacts, err := h.service.GetByType(userClaims.CurrentOrgID, c.Param("type"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, contacts)
}

// Update 更新联系人
func (h *ContactHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	contact, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "联系人不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, contact)
}

// Assign 指派联系人负责人
func (h *ContactHandler) Assign(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	contact, err := h.service.Assign(userClaims.CurrentOrgID, uint(id), req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "联系人不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, contact)
}

// Delete 删除联系人
func (h *ContactHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "联系人不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}
