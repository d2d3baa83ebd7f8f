package models

import "time"

// EmailTemplate 邮件模板模型
type EmailTemplate struct {
	BaseModel
	OrganizationID uint   `json:"organization_id" gorm:"not null;index"`
	Name           string `json:"name" gorm:"not null;size:100"`
	Subject        string `json:"subject" gorm:"not null;size:200"`
	Body           string `json:"body" gorm:"type:text"`
	Category       string `json:"category" gorm:"size:32"`
	CreatedBy      uint   `json:"created_by"`
}

// TableName 表名
func (t *EmailTemplate) TableName() string {
	return "email_templates"
}

// EmailCampaign 邮件营销活动模型
type EmailCampaign struct {
	BaseModel
	OrganizationID uint       `json:"organization_id" gorm:"not null;index"`
	TemplateID     uint       `json:"template_id" gorm:"not null;index"`
	Name           string     `json:"name" gorm:"not null;size:100"`
	Status         string     `json:"status" gorm:"default:'draft';size:20;index"`
	RecipientCount int        `json:"recipient_count" gorm:"default:0"`
	ScheduledAt    *time.Time `json:"scheduled_at" gorm:"index"`
	SentAt         *time.Time `json:"sent_at"`
	CreatedBy      uint       `json:"created_by"`

	Template *EmailTemplate   `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Metrics  *CampaignMetrics `json:"metrics,omitempty" gorm:"foreignKey:CampaignID"`
}

// TableName 表名
func (c *EmailCampaign) TableName() string {
	return "email_campaigns"
}

// 活动状态常量
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusSent      = "sent"
	CampaignStatusCancelled = "cancelled"
)

// campaignTransitions 活动状态的合法流转
var campaignTransitions = map[string][]string{
	CampaignStatusDraft:     {CampaignStatusScheduled, CampaignStatusSending, CampaignStatusCancelled},
	CampaignStatusScheduled: {CampaignStatusSending, CampaignStatusCancelled},
	CampaignStatusSending:   {CampaignStatusSent},
}

// CanTransitionTo 检查活动是否可以流转到目标状态
func (c *EmailCampaign) CanTransitionTo(target string) bool {
	for _, next := range campaignTransitions[c.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// CampaignMetrics 活动投递指标，除修正外只增不减
type CampaignMetrics struct {
	BaseModel
	CampaignID   uint  `json:"campaign_id" gorm:"not null;uniqueIndex"`
	Sent         int64 `json:"sent" gorm:"default:0"`
	Delivered    int64 `json:"delivered" gorm:"default:0"`
	Opened       int64 `json:"opened" gorm:"default:0"`
	Clicked      int64 `json:"clicked" gorm:"default:0"`
	Bounced      int64 `json:"bounced" gorm:"default:0"`
	Unsubscribed int64 `json:"unsubscribed" gorm:"default:0"`
}

// TableName 表名
func (m *CampaignMetrics) TableName() string {
	return "campaign_metrics"
}
