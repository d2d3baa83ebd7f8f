package handlers

import (
	"errors"
	"strconv"

	"modulyn/internal/services"
	"modulyn/pkg/jwt"
	"modulyn/pkg/pagination"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	service     *services.OrganizationService
	userService *services.UserService
}

func NewOrganizationHandler(service *services.OrganizationService, userService *services.UserService) *OrganizationHandler {
	return &OrganizationHandler{
		service:     service,
		userService: userService,
	}
}

// CreateOrgRequest 创建组织请求
type CreateOrgRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
	Type string `json:"type"`
	Plan string `json:"plan"`
}

// UpdateOrgRequest 更新组织请求
type UpdateOrgRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Plan string `json:"plan"`
}

// Create 创建组织，创建人自动成为组织管理员
func (h *OrganizationHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	org, err := h.service.CreateWithOwner(userClaims.UserID, req.Name, req.Code, req.Type, req.Plan)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "组织创建成功，请重新登录以获取组织上下文", org)
}

// List 获取组织列表（平台管理员）
func (h *OrganizationHandler) List(c *gin.Context) {
	status := c.Query("status")
	keyword := c.Query("keyword")
	pageParams := pagination.ParsePageParams(c)

	orgs, total, err := h.service.GetWithFiltersAndPage(status, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, orgs, pageInfo)
}

// ListActive 获取激活组织列表（平台管理员，含成员数）
func (h *OrganizationHandler) ListActive(c *gin.Context) {
	orgs, err := h.service.GetAllActive()
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, orgs)
}

// GetMy 获取当前组织信息
func (h *OrganizationHandler) GetMy(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	org, err := h.service.GetByID(userClaims.CurrentOrgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "组织不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, org)
}

// Update 更新当前组织（组织管理员）
func (h *OrganizationHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	org, err := h.service.Update(userClaims.CurrentOrgID, req.Name, req.Type, req.Plan)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "组织不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, org)
}

// Activate 激活组织（平台管理员）
func (h *OrganizationHandler) Activate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	org, err := h.service.Activate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "组织不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, org)
}

// Deactivate 停用组织（平台管理员）
func (h *OrganizationHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	org, err := h.service.Deactivate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "组织不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, org)
}

// Delete 删除组织（平台管理员，仅限空组织）
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, nil)
}

// GetStats 获取组织统计（平台管理员）
func (h *OrganizationHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	plans, err := h.service.GetPlanDistribution()
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, gin.H{
		"stats": stats,
		"plans": plans,
	})
}

// ListUsers 获取当前组织的成员列表
func (h *OrganizationHandler) ListUsers(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	keyword := c.Query("keyword")
	pageParams := pagination.ParsePageParams(c)

	users, total, err := h.userService.GetOrgUsers(userClaims.CurrentOrgID, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// SetOrgAdmin 设置或取消组织管理员（组织管理员）
func (h *OrganizationHandler) SetOrgAdmin(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.userService.SetOrgAdmin(userClaims.CurrentOrgID, uint(userID), req.IsAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "成员不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, nil)
}

// RemoveUser 将成员移出组织（组织管理员）
func (h *OrganizationHandler) RemoveUser(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if uint(userID) == userClaims.UserID {
		response.BadRequest(c, "不能将自己移出组织")
		return
	}

	if err := h.userService.RemoveFromOrg(userClaims.CurrentOrgID, uint(userID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "成员不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, nil)
}
