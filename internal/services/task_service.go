package services

import (
	"fmt"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// TaskService 任务服务
type TaskService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建任务
func (s *TaskService) Create(orgID, createdBy uint, task *models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if !models.IsValidTaskStatus(task.Status) {
		return nil, fmt.Errorf("无效的任务状态: %s", task.Status)
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if !models.IsValidTaskPriority(task.Priority) {
		return nil, fmt.Errorf("无效的任务优先级: %s", task.Priority)
	}

	// 关联对象必须属于本组织
	if task.RelatedToType != nil && task.RelatedToID != nil {
		if err := s.checkRelated(orgID, *task.RelatedToType, *task.RelatedToID); err != nil {
			return nil, err
		}
	}

	task.OrganizationID = orgID
	task.CreatedBy = createdBy

	if err := s.db.Create(task).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "tasks", queue.ChangeInsert, orgID, task.ID)
	return task, nil
}

// checkRelated 校验关联对象的租户归属
func (s *TaskService) checkRelated(orgID uint, relatedType string, relatedID uint) error {
	var model interface{}
	switch relatedType {
	case models.TaskRelatedContact:
		model = &models.Contact{}
	case models.TaskRelatedLead:
		model = &models.Lead{}
	case models.TaskRelatedDeal:
		model = &models.Deal{}
	case models.TaskRelatedProperty:
		model = &models.Property{}
	case models.TaskRelatedEvent:
		model = &models.Event{}
	default:
		return fmt.Errorf("无效的关联类型: %s", relatedType)
	}

	var count int64
	s.db.Model(model).Where("id = ? AND organization_id = ?", relatedID, orgID).Count(&count)
	if count == 0 {
		return fmt.Errorf("关联对象不存在")
	}
	return nil
}

// GetByID 获取单个任务
func (s *TaskService) GetByID(orgID, id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&task).Error
	return &task, err
}

// GetWithFiltersAndPage 组合查询（分页版本）。
// 任务列表按截止时间升序，最紧迫的排在最前
func (s *TaskService) GetWithFiltersAndPage(orgID uint, status, priority string, assignedTo uint, keyword string, page, pageSize int) ([]*models.Task, int64, error) {
	var tasks []*models.Task
	var total int64

	query := s.db.Model(&models.Task{}).Where("organization_id = ?", orgID)

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignedTo > 0 {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title ILIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("due_date ASC NULLS LAST").Offset(offset).Limit(pageSize).Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// GetDueBetween 获取截止时间落在区间内的未完成任务
func (s *TaskService) GetDueBetween(orgID uint, start, end time.Time) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.db.Where("organization_id = ? AND status IN ? AND due_date >= ? AND due_date < ?",
		orgID, models.OpenTaskStatuses(), start, end).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

// GetOverdue 获取已逾期的未完成任务
func (s *TaskService) GetOverdue(orgID uint) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.db.Where("organization_id = ? AND status IN ? AND due_date < ?",
		orgID, models.OpenTaskStatuses(), time.Now()).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

// Update 更新任务
func (s *TaskService) Update(orgID, id uint, updates map[string]interface{}) (*models.Task, error) {
	var task models.Task
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&task).Error; err != nil {
		return nil, err
	}

	if st, ok := updates["status"].(string); ok && !models.IsValidTaskStatus(st) {
		return nil, fmt.Errorf("无效的任务状态: %s", st)
	}
	if p, ok := updates["priority"].(string); ok && !models.IsValidTaskPriority(p) {
		return nil, fmt.Errorf("无效的任务优先级: %s", p)
	}

	delete(updates, "organization_id")
	delete(updates, "created_by")
	delete(updates, "completed_at")

	if err := s.db.Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "tasks", queue.ChangeUpdate, orgID, task.ID)
	return &task, nil
}

// Complete 完成任务并记录完成时间
func (s *TaskService) Complete(orgID, id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&task).Error; err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusCompleted {
		return nil, fmt.Errorf("任务已完成")
	}
	if task.Status == models.TaskStatusCancelled {
		return nil, fmt.Errorf("已取消的任务不能完成")
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now

	if err := s.db.Save(&task).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "tasks", queue.ChangeUpdate, orgID, task.ID)
	return &task, nil
}

// Delete 删除任务
func (s *TaskService) Delete(orgID, id uint) error {
	result := s.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	publishChange(s.publisher, "tasks", queue.ChangeDelete, orgID, id)
	return nil
}
