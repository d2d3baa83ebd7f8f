package models

// Contact 联系人模型
type Contact struct {
	BaseModel
	OrganizationID uint    `json:"organization_id" gorm:"not null;index"`
	Name           string  `json:"name" gorm:"not null;size:100"`
	Email          *string `json:"email" gorm:"size:100;index"`
	Phone          *string `json:"phone" gorm:"size:32"`
	Company        *string `json:"company" gorm:"size:100"`
	Type           string  `json:"type" gorm:"default:'prospect';size:20"`
	Status         string  `json:"status" gorm:"default:'active';size:20;index"`
	AssignedTo     *uint   `json:"assigned_to" gorm:"index"`
	Notes          string  `json:"notes" gorm:"type:text"`
	CreatedBy      uint    `json:"created_by"`
}

// TableName 表名
func (c *Contact) TableName() string {
	return "contacts"
}

// 联系人类型常量
const (
	ContactTypeProspect = "prospect"
	ContactTypeClient   = "client"
	ContactTypePartner  = "partner"
	ContactTypeVendor   = "vendor"
)

// 联系人状态常量
const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
	ContactStatusLead     = "lead"
)

// IsValidContactType 检查联系人类型是否有效
func IsValidContactType(t string) bool {
	switch t {
	case ContactTypeProspect, ContactTypeClient, ContactTypePartner, ContactTypeVendor:
		return true
	default:
		return false
	}
}

// IsValidContactStatus 检查联系人状态是否有效
func IsValidContactStatus(s string) bool {
	switch s {
	case ContactStatusActive, ContactStatusInactive, ContactStatusLead:
		return true
	default:
		return false
	}
}
