package models

import (
	"time"

	"gorm.io/datatypes"
)

// Member 协会会员模型，在用户档案基础上扩展会籍信息
type Member struct {
	BaseModel
	OrganizationID     uint           `json:"organization_id" gorm:"not null;uniqueIndex:idx_member_org_user,priority:1"`
	UserID             uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_member_org_user,priority:2"`
	MembershipType     string         `json:"membership_type" gorm:"default:'regular';size:20"`
	SubscriptionStatus string         `json:"subscription_status" gorm:"default:'active';size:20;index"`
	Certifications     datatypes.JSON `json:"certifications" gorm:"type:json"`  // 字符串集合
	Specializations    datatypes.JSON `json:"specializations" gorm:"type:json"` // 字符串集合
	Committees         datatypes.JSON `json:"committees" gorm:"type:json"`      // 字符串集合
	JoinedAt           time.Time      `json:"joined_at"`
	RenewalDate        *time.Time     `json:"renewal_date"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName 表名
func (m *Member) TableName() string {
	return "members"
}

// 会籍类型常量
const (
	MembershipRegular   = "regular"
	MembershipAssociate = "associate"
	MembershipHonorary  = "honorary"
	MembershipStudent   = "student"
)

// 会籍订阅状态常量
const (
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// IsValidMembershipType 检查会籍类型是否有效
func IsValidMembershipType(t string) bool {
	switch t {
	case MembershipRegular, MembershipAssociate, MembershipHonorary, MembershipStudent:
		return true
	default:
		return false
	}
}

// IsValidSubscriptionStatus 检查订阅状态是否有效
func IsValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionActive, SubscriptionPastDue, SubscriptionCancelled, SubscriptionExpired:
		return true
	default:
		return false
	}
}
