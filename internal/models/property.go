package models

// Property 房源模型
type Property struct {
	BaseModel
	OrganizationID uint    `json:"organization_id" gorm:"not null;index"`
	Title          string  `json:"title" gorm:"not null;size:200"`
	Address        string  `json:"address" gorm:"size:255"`
	City           string  `json:"city" gorm:"size:64"`
	Type           string  `json:"type" gorm:"default:'residential';size:20"`
	Status         string  `json:"status" gorm:"default:'available';size:20;index"`
	Price          float64 `json:"price" gorm:"type:decimal(14,2);default:0"`
	Area           float64 `json:"area" gorm:"default:0"` // 平方米
	Description    string  `json:"description" gorm:"type:text"`
	CreatedBy      uint    `json:"created_by"`
}

// TableName 表名
func (p *Property) TableName() string {
	return "properties"
}

// 房源类型常量
const (
	PropertyTypeResidential = "residential"
	PropertyTypeCommercial  = "commercial"
	PropertyTypeLand        = "land"
	PropertyTypeIndustrial  = "industrial"
)

// 房源状态常量
const (
	PropertyStatusAvailable     = "available"
	PropertyStatusUnderContract = "under_contract"
	PropertyStatusSold          = "sold"
	PropertyStatusRented        = "rented"
	PropertyStatusOffMarket     = "off_market"
)

// IsValidPropertyStatus 检查房源状态是否有效
func IsValidPropertyStatus(s string) bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusUnderContract,
		PropertyStatusSold, PropertyStatusRented, PropertyStatusOffMarket:
		return true
	default:
		return false
	}
}

// ActivePropertyStatuses 在售/在租中的房源状态集合
func ActivePropertyStatuses() []string {
	return []string{PropertyStatusAvailable, PropertyStatusUnderContract}
}
