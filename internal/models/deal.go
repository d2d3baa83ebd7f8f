package models

import "time"

// Deal 交易模型
type Deal struct {
	BaseModel
	OrganizationID    uint       `json:"organization_id" gorm:"not null;index"`
	LeadID            *uint      `json:"lead_id" gorm:"index"` // 由线索转化而来时记录源线索
	Title             string     `json:"title" gorm:"not null;size:200"`
	Stage             string     `json:"stage" gorm:"default:'prospecting';size:20;index"`
	Value             float64    `json:"value" gorm:"type:decimal(14,2);default:0"`
	Currency          string     `json:"currency" gorm:"default:'USD';size:8"`
	Probability       int        `json:"probability" gorm:"default:0"` // 0-100
	AssignedTo        *uint      `json:"assigned_to" gorm:"index"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ClosedAt          *time.Time `json:"closed_at"`
	CreatedBy         uint       `json:"created_by"`
}

// TableName 表名
func (d *Deal) TableName() string {
	return "deals"
}

// 交易阶段常量
const (
	DealStageProspecting   = "prospecting"
	DealStageQualification = "qualification"
	DealStageProposal      = "proposal"
	DealStageNegotiation   = "negotiation"
	DealStageClosedWon     = "closed_won"
	DealStageClosedLost    = "closed_lost"
)

// dealTransitions 交易阶段的合法流转
var dealTransitions = map[string][]string{
	DealStageProspecting:   {DealStageQualification, DealStageClosedLost},
	DealStageQualification: {DealStageProposal, DealStageClosedLost},
	DealStageProposal:      {DealStageNegotiation, DealStageClosedLost},
	DealStageNegotiation:   {DealStageClosedWon, DealStageClosedLost},
}

// CanTransitionTo 检查交易是否可以流转到目标阶段
func (d *Deal) CanTransitionTo(target string) bool {
	for _, next := range dealTransitions[d.Stage] {
		if next == target {
			return true
		}
	}
	return false
}

// IsClosed 交易是否已关闭
func (d *Deal) IsClosed() bool {
	return d.Stage == DealStageClosedWon || d.Stage == DealStageClosedLost
}

// IsValidDealStage 检查交易阶段是否有效
func IsValidDealStage(s string) bool {
	switch s {
	case DealStageProspecting, DealStageQualification, DealStageProposal,
		DealStageNegotiation, DealStageClosedWon, DealStageClosedLost:
		return true
	default:
		return false
	}
}

// OpenDealStages 未关闭的交易阶段集合
func OpenDealStages() []string {
	return []string{
		DealStageProspecting, DealStageQualification,
		DealStageProposal, DealStageNegotiation,
	}
}
