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

type MemberHandler struct {
	service *services.MemberService
}

func NewMemberHandler(service *services.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

// CreateMemberRequest 创建会员档案请求
type CreateMemberRequest struct {
	UserID         uint       `json:"user_id" binding:"required"`
	MembershipType string     `json:"membership_type" binding:"omitempty,oneof=regular associate honorary student"`
	JoinedAt       *time.Time `json:"joined_at"`
	RenewalDate    *time.Time `json:"renewal_date"`
}

// SetMutationRequest 集合字段增删请求
type SetMutationRequest struct {
	Field string `json:"field" binding:"required,oneof=certifications specializations committees"`
	Value string `json:"value" binding:"required"`
}

// Create 创建会员档案
func (h *MemberHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member := &models.Member{
		UserID:         req.UserID,
		MembershipType: req.MembershipType,
		RenewalDate:    req.RenewalDate,
	}
	if req.JoinedAt != nil {
		member.JoinedAt = *req.JoinedAt
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, member)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取会员档案详情
func (h *MemberHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	member, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, member)
}

// GetByUser 根据用户ID获取会员档案
func (h *MemberHandler) GetByUser(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	member, err := h.service.GetByUserID(userClaims.CurrentOrgID, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, member)
}

// List 获取会员列表
func (h *MemberHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	membershipType := c.Query("membership_type")
	subscriptionStatus := c.Query("subscription_status")
	pageParams := pagination.ParsePageParams(c)

	members, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, membershipType, subscriptionStatus,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, members, pageInfo)
}

// UpdateMembershipType 变更会籍类型
func (h *MemberHandler) UpdateMembershipType(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		MembershipType string `json:"membership_type" binding:"required,oneof=regular associate honorary student"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member, err := h.service.UpdateMembershipType(userClaims.CurrentOrgID, uint(id), req.MembershipType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, member)
}

// UpdateSubscriptionStatus 变更订阅状态
func (h *MemberHandler) UpdateSubscriptionStatus(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		SubscriptionStatus string `json:"subscription_status" binding:"required,oneof=active past_due cancelled expired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member, err := h.service.UpdateSubscriptionStatus(userClaims.CurrentOrgID, uint(id), req.SubscriptionStatus)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, member)
}

// Renew 会员续费
func (h *MemberHandler) Renew(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		RenewalDate time.Time `json:"renewal_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	member, err := h.service.Renew(userClaims.CurrentOrgID, uint(id), req.RenewalDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, member)
}

// AddToSet 向集合字段添加一项
func (h *MemberHandler) AddToSet(c *gin.Context) {
	h.mutateSet(c, true)
}

// RemoveFromSet 从集合字段移除一项
func (h *MemberHandler) RemoveFromSet(c *gin.Context) {
	h.mutateSet(c, false)
}

func (h *MemberHandler) mutateSet(c *gin.Context, add bool) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req SetMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	var member *models.Member
	if add {
		member, err = h.service.AddToSet(userClaims.CurrentOrgID, uint(id), req.Field, req.Value)
	} else {
		member, err = h.service.RemoveFromSet(userClaims.CurrentOrgID, uint(id), req.Field, req.Value)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, member)
}

// Delete 删除会员档案
func (h *MemberHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "会员档案不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}

	response.Success(c, nil)
}
