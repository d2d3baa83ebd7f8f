package services

import (
	"fmt"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/logger"
	"modulyn/pkg/queue"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailService 邮件模板与营销活动服务。
// 投递本身交给队列消费方，这里只负责生命周期和指标归集
type EmailService struct {
	db        *gorm.DB
	queue     *queue.RedisQueue
	publisher ChangePublisher
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db}
}

// SetQueue 注入投递队列，未注入时发送操作直接报错
func (s *EmailService) SetQueue(q *queue.RedisQueue) {
	s.queue = q
}

func (s *EmailService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// ========== 模板管理 ==========

// CreateTemplate 创建邮件模板
func (s *EmailService) CreateTemplate(orgID, createdBy uint, template *models.EmailTemplate) (*models.EmailTemplate, error) {
	if template.Name == "" || template.Subject == "" {
		return nil, fmt.Errorf("模板名称和主题不能为空")
	}

	template.OrganizationID = orgID
	template.CreatedBy = createdBy

	err := s.db.Create(template).Error
	return template, err
}

// GetTemplate 获取单个模板
func (s *EmailService) GetTemplate(orgID, id uint) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&template).Error
	return &template, err
}

// GetTemplatesWithPage 获取模板列表（分页）
func (s *EmailService) GetTemplatesWithPage(orgID uint, category, keyword string, page, pageSize int) ([]*models.EmailTemplate, int64, error) {
	var templates []*models.EmailTemplate
	var total int64

	query := s.db.Model(&models.EmailTemplate{}).Where("organization_id = ?", orgID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name ILIKE ? OR subject ILIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&templates).Error
	return templates, total, err
}

// UpdateTemplate 更新模板
func (s *EmailService) UpdateTemplate(orgID, id uint, updates map[string]interface{}) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&template).Error; err != nil {
		return nil, err
	}

	delete(updates, "organization_id")
	delete(updates, "created_by")

	err := s.db.Model(&template).Updates(updates).Error
	return &template, err
}

// DeleteTemplate 删除模板
func (s *EmailService) DeleteTemplate(orgID, id uint) error {
	// 仍被活动引用的模板不允许删除
	var count int64
	s.db.Model(&models.EmailCampaign{}).Where("template_id = ? AND organization_id = ?", id, orgID).Count(&count)
	if count > 0 {
		return fmt.Errorf("模板仍被 %d 个活动引用，无法删除", count)
	}

	result := s.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.EmailTemplate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ========== 活动管理 ==========

// CreateCampaign 创建营销活动（初始为草稿）
func (s *EmailService) CreateCampaign(orgID, createdBy uint, campaign *models.EmailCampaign) (*models.EmailCampaign, error) {
	if campaign.Name == "" {
		return nil, fmt.Errorf("活动名称不能为空")
	}

	// 模板必须属于本组织
	var count int64
	s.db.Model(&models.EmailTemplate{}).Where("id = ? AND organization_id = ?", campaign.TemplateID, orgID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("邮件模板不存在")
	}

	campaign.OrganizationID = orgID
	campaign.CreatedBy = createdBy
	campaign.Status = models.CampaignStatusDraft
	campaign.ScheduledAt = nil
	campaign.SentAt = nil

	if err := s.db.Create(campaign).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "email_campaigns", queue.ChangeInsert, orgID, campaign.ID)
	return campaign, nil
}

// GetCampaign 获取单个活动（附带模板和指标）
func (s *EmailService) GetCampaign(orgID, id uint) (*models.EmailCampaign, error) {
	var campaign models.EmailCampaign
	err := s.db.Preload("Template").Preload("Metrics").
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&campaign).Error
	return &campaign, err
}

// GetCampaignsWithPage 获取活动列表（分页）
func (s *EmailService) GetCampaignsWithPage(orgID uint, status, keyword string, page, pageSize int) ([]*models.EmailCampaign, int64, error) {
	var campaigns []*models.EmailCampaign
	var total int64

	query := s.db.Model(&models.EmailCampaign{}).Where("organization_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name ILIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&campaigns).Error
	return campaigns, total, err
}

// Schedule 预约发送时间
func (s *EmailService) Schedule(orgID, id uint, scheduledAt time.Time) (*models.EmailCampaign, error) {
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("预约时间必须晚于当前时间")
	}

	var campaign models.EmailCampaign
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignStatusDraft && campaign.Status != models.CampaignStatusScheduled {
		return nil, fmt.Errorf("活动状态 %s 不允许预约", campaign.Status)
	}

	campaign.Status = models.CampaignStatusScheduled
	campaign.ScheduledAt = &scheduledAt
	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "email_campaigns", queue.ChangeUpdate, orgID, campaign.ID)
	return &campaign, nil
}

// Send 立即发送：统计收件人、入队投递消息、置为发送中
func (s *EmailService) Send(orgID, id, operatorID uint) (*models.EmailCampaign, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("投递队列未配置")
	}

	var campaign models.EmailCampaign
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		return nil, err
	}

	if !campaign.CanTransitionTo(models.CampaignStatusSending) {
		return nil, fmt.Errorf("活动状态 %s 不允许发送", campaign.Status)
	}

	var org models.Organization
	if err := s.db.First(&org, orgID).Error; err != nil {
		return nil, err
	}

	// 收件人为组织内有邮箱的活跃联系人
	var recipients int64
	s.db.Model(&models.Contact{}).
		Where("organization_id = ? AND status = ? AND email IS NOT NULL AND email <> ''",
			orgID, models.ContactStatusActive).
		Count(&recipients)

	message := &queue.CampaignMessage{
		MessageID:   uuid.New().String(),
		CampaignID:  campaign.ID,
		TemplateID:  campaign.TemplateID,
		OrgID:       orgID,
		OrgName:     org.Name,
		RequestedBy: operatorID,
		Recipients:  int(recipients),
	}
	if campaign.ScheduledAt != nil {
		message.ScheduledFor = campaign.ScheduledAt.Unix()
	}

	// 入队（Redis）和落库（Postgres）跨两个存储，不在一个事务里。
	// 入队成功后落库失败时活动仍停在原状态，下次发送/调度会再次入队，
	// 投递语义为至少一次，消费方按message_id去重
	if err := s.queue.EnqueueCampaign(message); err != nil {
		return nil, fmt.Errorf("投递消息入队失败: %v", err)
	}

	campaign.Status = models.CampaignStatusSending
	campaign.RecipientCount = int(recipients)
	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Infof("营销活动已入队 [campaign=%d org=%d recipients=%d]", campaign.ID, orgID, recipients)
	publishChange(s.publisher, "email_campaigns", queue.ChangeUpdate, orgID, campaign.ID)
	return &campaign, nil
}

// QueueLength 当前待投递的活动消息数
func (s *EmailService) QueueLength() (int64, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("投递队列未配置")
	}
	return s.queue.CampaignQueueLength()
}

// Cancel 取消活动（仅限草稿和已预约）
func (s *EmailService) Cancel(orgID, id uint) (*models.EmailCampaign, error) {
	var campaign models.EmailCampaign
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		return nil, err
	}

	if !campaign.CanTransitionTo(models.CampaignStatusCancelled) {
		return nil, fmt.Errorf("活动状态 %s 不允许取消", campaign.Status)
	}

	campaign.Status = models.CampaignStatusCancelled
	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "email_campaigns", queue.ChangeUpdate, orgID, campaign.ID)
	return &campaign, nil
}

// MarkSent 投递完成回调：置为已发送并记录完成时间
func (s *EmailService) MarkSent(orgID, id uint) (*models.EmailCampaign, error) {
	var campaign models.EmailCampaign
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		return nil, err
	}

	if !campaign.CanTransitionTo(models.CampaignStatusSent) {
		return nil, fmt.Errorf("活动状态 %s 不允许标记完成", campaign.Status)
	}

	now := time.Now()
	campaign.Status = models.CampaignStatusSent
	campaign.SentAt = &now
	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "email_campaigns", queue.ChangeUpdate, orgID, campaign.ID)
	return &campaign, nil
}

// RecordMetrics 归集投递指标。
// 指标只增不减：低于已有值的上报默认按迟到数据丢弃，
// correction为true时才允许向下修正
func (s *EmailService) RecordMetrics(orgID, campaignID uint, incoming *models.CampaignMetrics, correction bool) (*models.CampaignMetrics, error) {
	var campaign models.EmailCampaign
	if err := s.db.Where("id = ? AND organization_id = ?", campaignID, orgID).First(&campaign).Error; err != nil {
		return nil, err
	}

	var metrics models.CampaignMetrics
	err := s.db.Where("campaign_id = ?", campaignID).First(&metrics).Error
	if err == gorm.ErrRecordNotFound {
		metrics = models.CampaignMetrics{CampaignID: campaignID}
	} else if err != nil {
		return nil, err
	}

	merge := func(current, reported int64) int64 {
		if correction || reported > current {
			return reported
		}
		return current
	}

	metrics.Sent = merge(metrics.Sent, incoming.Sent)
	metrics.Delivered = merge(metrics.Delivered, incoming.Delivered)
	metrics.Opened = merge(metrics.Opened, incoming.Opened)
	metrics.Clicked = merge(metrics.Clicked, incoming.Clicked)
	metrics.Bounced = merge(metrics.Bounced, incoming.Bounced)
	metrics.Unsubscribed = merge(metrics.Unsubscribed, incoming.Unsubscribed)

	if err := s.db.Save(&metrics).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "email_campaigns", queue.ChangeUpdate, orgID, campaignID)
	return &metrics, nil
}
