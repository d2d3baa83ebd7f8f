package handlers

import (
	"modulyn/internal/models"
	"modulyn/internal/services"
	"modulyn/pkg/jwt"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	orgService  *services.OrganizationService
	jwtManager  *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, orgService *services.OrganizationService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		orgService:  orgService,
		jwtManager:  jwt.GetJWTManager(),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Name     string `json:"name" binding:"required,max=50"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name   string  `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Register(req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "注册成功", user)
}

// Login 用户登录，签发带组织上下文的令牌
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Authenticate(req.Account, req.Password)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	var orgID uint
	if user.OrganizationID != nil {
		orgID = *user.OrganizationID
	}

	token, err := h.jwtManager.GenerateToken(user.ID, orgID, user.Username, user.IsPlatformAdmin, user.IsOrgAdmin)
	if err != nil {
		response.ServerError(c, "令牌生成失败")
		return
	}

	// 登录时间更新失败不影响登录
	_ = h.userService.UpdateLastLogin(user.ID)

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtManager.GetTokenDuration().Seconds()),
		"user":       user,
	})
}

// Refresh 刷新令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	token, err := h.jwtManager.RefreshToken(req.Token)
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Me 获取当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		response.Unauthorized(c, "请先登录")
		return
	}

	response.Success(c, user.(*models.User))
}

// UpdateProfile 更新当前用户资料
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.UpdateProfile(userClaims.UserID, req.Name, req.Phone, req.Avatar)
	if err != nil {
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, user)
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.userService.ChangePassword(userClaims.UserID, req.OldPassword, req.NewPassword); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "密码修改成功", nil)
}

// SwitchOrg 平台管理员切换当前操作的组织
func (h *AuthHandler) SwitchOrg(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	if !userClaims.IsPlatformAdmin {
		response.Forbidden(c, "需要平台管理员权限")
		return
	}

	var req struct {
		OrgID uint `json:"org_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// 目标组织必须存在且处于激活状态
	org, err := h.orgService.GetByID(req.OrgID)
	if err != nil {
		response.NotFound(c, "组织不存在")
		return
	}
	if org.Status != models.OrgStatusActive {
		response.BadRequest(c, "组织已停用")
		return
	}

	token, err := h.jwtManager.GenerateTokenWithOrg(
		userClaims.UserID, userClaims.OrgID, req.OrgID,
		userClaims.Username, userClaims.IsPlatformAdmin, userClaims.IsOrgAdmin)
	if err != nil {
		response.ServerError(c, "令牌生成失败")
		return
	}

	response.Success(c, gin.H{
		"token":          token,
		"current_org_id": req.OrgID,
	})
}
