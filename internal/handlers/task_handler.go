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

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate       *time.Time `json:"due_date"`
	AssignedTo    *uint      `json:"assigned_to"`
	RelatedToType *string    `json:"related_to_type" binding:"omitempty,oneof=contact lead deal property event"`
	RelatedToID   *uint      `json:"related_to_id"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in_progress cancelled deferred"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *uint      `json:"assigned_to"`
}

// Create 创建任务
func (h *TaskHandler) Create(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if (req.RelatedToType == nil) != (req.RelatedToID == nil) {
		response.BadRequest(c, "关联类型和关联ID必须同时提供")
		return
	}

	task := &models.Task{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		AssignedTo:    req.AssignedTo,
		RelatedToType: req.RelatedToType,
		RelatedToID:   req.RelatedToID,
	}

	created, err := h.service.Create(userClaims.CurrentOrgID, userClaims.UserID, task)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, created)
}

// GetByID 获取任务详情
func (h *TaskHandler) GetByID(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	task, err := h.service.GetByID(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "任务不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, task)
}

// List 获取任务列表（按截止时间升序）
func (h *TaskHandler) List(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	status := c.Query("status")
	priority := c.Query("priority")
	keyword := c.Query("keyword")
	assignedTo, _ := strconv.ParseUint(c.Query("assigned_to"), 10, 32)
	pageParams := pagination.ParsePageParams(c)

	tasks, total, err := h.service.GetWithFiltersAndPage(
		userClaims.CurrentOrgID, status, priority, uint(assignedTo), keyword,
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, tasks, pageInfo)
}

// GetDueThisWeek 获取未来7天内到期的任务
func (h *TaskHandler) GetDueThisWeek(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 7)

	tasks, err := h.service.GetDueBetween(userClaims.CurrentOrgID, start, end)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, tasks)
}

// GetOverdue 获取已逾期的任务
func (h *TaskHandler) GetOverdue(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	tasks, err := h.service.GetOverdue(userClaims.CurrentOrgID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, tasks)
}

// Update 更新任务
func (h *TaskHandler) Update(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateTaskRequest
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
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}

	task, err := h.service.Update(userClaims.CurrentOrgID, uint(id), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "任务不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, task)
}

// Complete 完成任务
func (h *TaskHandler) Complete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	task, err := h.service.Complete(userClaims.CurrentOrgID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "任务不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, task)
}

// Delete 删除任务
func (h *TaskHandler) Delete(c *gin.Context) {
	claims, _ := c.Get("claims")
	userClaims := claims.(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(userClaims.CurrentOrgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "任务不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}

	response.Success(c, nil)
}
