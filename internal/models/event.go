package models

import "time"

// Event 活动模型
type Event struct {
	BaseModel
	OrganizationID       uint       `json:"organization_id" gorm:"not null;index"`
	Title                string     `json:"title" gorm:"not null;size:200"`
	Description          string     `json:"description" gorm:"type:text"`
	Type                 string     `json:"type" gorm:"default:'meeting';size:20"`
	Status               string     `json:"status" gorm:"default:'draft';size:30;index"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	Location             string     `json:"location" gorm:"size:255"`
	Capacity             int        `json:"capacity" gorm:"default:0"` // 0表示不限
	CurrentRegistrations int        `json:"current_registrations" gorm:"default:0"`
	CreatedBy            uint       `json:"created_by"`
}

// TableName 表名
func (e *Event) TableName() string {
	return "events"
}

// 活动状态常量
const (
	EventStatusDraft              = "draft"
	EventStatusPublished          = "published"
	EventStatusRegistrationOpen   = "registration_open"
	EventStatusRegistrationClosed = "registration_closed"
	EventStatusOngoing            = "ongoing"
	EventStatusCompleted          = "completed"
	EventStatusCancelled          = "cancelled"
)

// 活动类型常量
const (
	EventTypeMeeting    = "meeting"
	EventTypeConference = "conference"
	EventTypeTraining   = "training"
	EventTypeWebinar    = "webinar"
	EventTypeSocial     = "social"
)

// eventTransitions 活动状态的合法流转，cancelled可以从任意状态进入
var eventTransitions = map[string][]string{
	EventStatusDraft:              {EventStatusPublished},
	EventStatusPublished:          {EventStatusRegistrationOpen},
	EventStatusRegistrationOpen:   {EventStatusRegistrationClosed},
	EventStatusRegistrationClosed: {EventStatusOngoing},
	EventStatusOngoing:            {EventStatusCompleted},
}

// CanTransitionTo 检查活动是否可以流转到目标状态
func (e *Event) CanTransitionTo(target string) bool {
	if target == EventStatusCancelled {
		return e.Status != EventStatusCancelled && e.Status != EventStatusCompleted
	}
	for _, next := range eventTransitions[e.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// HasCapacityLimit 是否设置了容量上限
func (e *Event) HasCapacityLimit() bool {
	return e.Capacity > 0
}

// IsFull 报名是否已满
func (e *Event) IsFull() bool {
	return e.HasCapacityLimit() && e.CurrentRegistrations >= e.Capacity
}

// EventRegistration 活动报名记录，活动+用户唯一
type EventRegistration struct {
	BaseModel
	EventID       uint   `json:"event_id" gorm:"not null;uniqueIndex:idx_event_user,priority:1"`
	UserID        uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_event_user,priority:2"`
	Status        string `json:"status" gorm:"default:'pending';size:20;index"`
	PaymentStatus string `json:"payment_status" gorm:"default:'unpaid';size:20"`
	Code          string `json:"code" gorm:"size:64"` // 签到码

	Event *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}

// TableName 表名
func (r *EventRegistration) TableName() string {
	return "event_registrations"
}

// 报名状态常量
const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
	RegistrationWaitlist  = "waitlist"
	RegistrationAttended  = "attended"
)

// 报名付款状态常量
const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// CountsTowardCapacity 该报名是否占用容量名额
func (r *EventRegistration) CountsTowardCapacity() bool {
	switch r.Status {
	case RegistrationPending, RegistrationConfirmed, RegistrationAttended:
		return true
	default:
		return false
	}
}
