package models

import "time"

// Notification 站内通知模型
type Notification struct {
	BaseModel
	OrganizationID uint       `json:"organization_id" gorm:"not null;index"`
	UserID         uint       `json:"user_id" gorm:"not null;index"`
	Type           string     `json:"type" gorm:"size:32"`
	Title          string     `json:"title" gorm:"size:200"`
	Message        string     `json:"message" gorm:"type:text"`
	IsRead         bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt         *time.Time `json:"read_at"`
}

// TableName 表名
func (n *Notification) TableName() string {
	return "notifications"
}

// 通知类型常量
const (
	NotificationTypeSystem       = "system"
	NotificationTypeTask         = "task"
	NotificationTypeLead         = "lead"
	NotificationTypeEvent        = "event"
	NotificationTypeCampaign     = "campaign"
	NotificationTypeMembership   = "membership"
	NotificationTypeRegistration = "registration"
)
