package models

// Organization 组织（租户）模型 - 贫血模型，只包含数据结构
type Organization struct {
	BaseModel
	Name        string `json:"name" gorm:"not null;size:100"`
	Code        string `json:"code" gorm:"unique;not null;size:50;index"`
	Type        string `json:"type" gorm:"default:'general';size:20"`
	Plan        string `json:"plan" gorm:"default:'free';size:20"`
	Status      string `json:"status" gorm:"default:'active';size:20"`
	MemberCount int    `json:"member_count" gorm:"-"` // 成员数量，不存储在数据库中
}

// TableName 表名
func (o *Organization) TableName() string {
	return "organizations"
}

// 组织状态常量
const (
	OrgStatusActive   = "active"
	OrgStatusInactive = "inactive"
)

// 组织类型常量
const (
	OrgTypeAssociation = "association"
	OrgTypeRealEstate  = "realestate"
	OrgTypeGeneral     = "general"
)

// 订阅套餐常量
const (
	OrgPlanFree         = "free"
	OrgPlanStarter      = "starter"
	OrgPlanProfessional = "professional"
	OrgPlanEnterprise   = "enterprise"
)
