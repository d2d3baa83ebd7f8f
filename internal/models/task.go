package models

import "time"

// Task 待办任务模型
type Task struct {
	BaseModel
	OrganizationID uint       `json:"organization_id" gorm:"not null;index"`
	Title          string     `json:"title" gorm:"not null;size:200"`
	Description    string     `json:"description" gorm:"type:text"`
	Status         string     `json:"status" gorm:"default:'pending';size:20;index"`
	Priority       string     `json:"priority" gorm:"default:'medium';size:20"`
	DueDate        *time.Time `json:"due_date" gorm:"index"`
	AssignedTo     *uint      `json:"assigned_to" gorm:"index"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedBy      uint       `json:"created_by"`

	// 可选的多态关联：任务挂在某个联系人/线索/交易/房源/活动下
	RelatedToType *string `json:"related_to_type" gorm:"size:20"`
	RelatedToID   *uint   `json:"related_to_id"`
}

// TableName 表名
func (t *Task) TableName() string {
	return "tasks"
}

// 任务状态常量
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
	TaskStatusDeferred   = "deferred"
)

// 任务优先级常量
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// 任务可关联的实体类型
const (
	TaskRelatedContact  = "contact"
	TaskRelatedLead     = "lead"
	TaskRelatedDeal     = "deal"
	TaskRelatedProperty = "property"
	TaskRelatedEvent    = "event"
)

// IsValidTaskStatus 检查任务状态是否有效
func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusCancelled, TaskStatusDeferred:
		return true
	default:
		return false
	}
}

// IsValidTaskPriority 检查任务优先级是否有效
func IsValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

// OpenTaskStatuses 未完结的任务状态集合
func OpenTaskStatuses() []string {
	return []string{TaskStatusPending, TaskStatusInProgress}
}
