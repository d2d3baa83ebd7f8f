package models

import "time"

// Lead 销售线索模型
type Lead struct {
	BaseModel
	OrganizationID    uint       `json:"organization_id" gorm:"not null;index"`
	ContactID         uint       `json:"contact_id" gorm:"not null;index"`
	Title             string     `json:"title" gorm:"size:200"`
	Status            string     `json:"status" gorm:"default:'new';size:20;index"`
	Source            string     `json:"source" gorm:"size:32"`
	Value             float64    `json:"value" gorm:"type:decimal(14,2);default:0"`
	Probability       int        `json:"probability" gorm:"default:0"` // 0-100
	ConvertedToDeal   bool       `json:"converted_to_deal" gorm:"default:false"`
	DealID            *uint      `json:"deal_id" gorm:"index"` // 不变式：converted_to_deal为真当且仅当deal_id非空
	AssignedTo        *uint      `json:"assigned_to" gorm:"index"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	CreatedBy         uint       `json:"created_by"`

	Contact *Contact `json:"contact,omitempty" gorm:"foreignKey:ContactID"`
}

// TableName 表名
func (l *Lead) TableName() string {
	return "leads"
}

// 线索状态常量
const (
	LeadStatusNew          = "new"
	LeadStatusContacted    = "contacted"
	LeadStatusQualified    = "qualified"
	LeadStatusProposalSent = "proposal_sent"
	LeadStatusNegotiation  = "negotiation"
	LeadStatusWon          = "won"
	LeadStatusLost         = "lost"
)

// leadTransitions 线索状态的合法流转
var leadTransitions = map[string][]string{
	LeadStatusNew:          {LeadStatusContacted, LeadStatusLost},
	LeadStatusContacted:    {LeadStatusQualified, LeadStatusLost},
	LeadStatusQualified:    {LeadStatusProposalSent, LeadStatusLost},
	LeadStatusProposalSent: {LeadStatusNegotiation, LeadStatusLost},
	LeadStatusNegotiation:  {LeadStatusWon, LeadStatusLost},
}

// CanTransitionTo 检查线索是否可以流转到目标状态
func (l *Lead) CanTransitionTo(target string) bool {
	for _, next := range leadTransitions[l.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// IsClosed 线索是否已关闭
func (l *Lead) IsClosed() bool {
	return l.Status == LeadStatusWon || l.Status == LeadStatusLost
}

// IsValidLeadStatus 检查线索状态是否有效
func IsValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposalSent, LeadStatusNegotiation, LeadStatusWon, LeadStatusLost:
		return true
	default:
		return false
	}
}

// ActiveLeadStatuses 仍在跟进中的线索状态集合
func ActiveLeadStatuses() []string {
	return []string{
		LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposalSent, LeadStatusNegotiation,
	}
}
