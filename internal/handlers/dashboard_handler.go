package handlers

import (
	"modulyn/internal/services"
	"modulyn/pkg/jwt"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetCRMKPIs 获取销售侧KPI
func (h *DashboardHandler) GetCRMKPIs(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	kpis, err := h.service.GetCRMKPIs(userClaims.CurrentOrgID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, kpis)
}

// GetTradeKPIs 获取协会/房产侧KPI
func (h *DashboardHandler) GetTradeKPIs(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	kpis, err := h.service.GetTradeKPIs(userClaims.CurrentOrgID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, kpis)
}
