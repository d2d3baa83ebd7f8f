package services

import (
	"fmt"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// LeadService 线索服务
type LeadService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db}
}

func (s *LeadService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建线索
func (s *LeadService) Create(orgID, createdBy uint, lead *models.Lead) (*models.Lead, error) {
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if !models.IsValidLeadStatus(lead.Status) {
		return nil, fmt.Errorf("无效的线索状态: %s", lead.Status)
	}
	if lead.Probability < 0 || lead.Probability > 100 {
		return nil, fmt.Errorf("成交概率必须在0-100之间")
	}

	// 关联的联系人必须属于本组织
	var count int64
	s.db.Model(&models.Contact{}).Where("id = ? AND organization_id = ?", lead.ContactID, orgID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("联系人不存在")
	}

	lead.OrganizationID = orgID
	lead.CreatedBy = createdBy
	lead.ConvertedToDeal = false
	lead.DealID = nil

	if err := s.db.Create(lead).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "leads", queue.ChangeInsert, orgID, lead.ID)
	return lead, nil
}

// GetByID 获取单条线索
func (s *LeadService) GetByID(orgID, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.Preload("Contact").
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&lead).Error
	return &lead, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *LeadService) GetWithFiltersAndPage(orgID uint, status, source string, assignedTo uint, keyword string, page, pageSize int) ([]*models.Lead, int64, error) {
	var leads []*models.Lead
	var total int64

	query := s.db.Model(&models.Lead{}).Where("organization_id = ?", orgID)

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if source != "" {
		query = query.Where("source = ?", source)
	}
	if assignedTo > 0 {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title ILIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Contact").
		Order("created_at DESC").Offset(offset).Limit(pageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// GetActive 获取所有未关闭的线索
func (s *LeadService) GetActive(orgID uint) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := s.db.Where("organization_id = ? AND status IN ?", orgID, models.ActiveLeadStatuses()).
		Order("created_at DESC").
		Find(&leads).Error
	return leads, err
}

// Update 更新线索基本信息（状态走UpdateStatus）
func (s *LeadService) Update(orgID, id uint, updates map[string]interface{}) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&lead).Error; err != nil {
		return nil, err
	}

	if p, ok := updates["probability"].(float64); ok && (p < 0 || p > 100) {
		return nil, fmt.Errorf("成交概率必须在0-100之间")
	}

	// 状态与转化标记有专门的入口，这里不允许改
	delete(updates, "status")
	delete(updates, "converted_to_deal")
	delete(updates, "deal_id")
	delete(updates, "organization_id")
	delete(updates, "created_by")

	if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "leads", queue.ChangeUpdate, orgID, lead.ID)
	return &lead, nil
}

// UpdateStatus 更新线索状态，按状态机校验迁移
func (s *LeadService) UpdateStatus(orgID, id uint, status string) (*models.Lead, error) {
	if !models.IsValidLeadStatus(status) {
		return nil, fmt.Errorf("无效的线索状态: %s", status)
	}

	var lead models.Lead
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&lead).Error; err != nil {
		return nil, err
	}

	if !lead.CanTransitionTo(status) {
		return nil, fmt.Errorf("线索状态不能从 %s 变更为 %s", lead.Status, status)
	}

	lead.Status = status
	if err := s.db.Save(&lead).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "leads", queue.ChangeUpdate, orgID, lead.ID)
	return &lead, nil
}

// ConvertToDeal 将线索转化为商机。
// 转化是单事务：创建商机、标记线索已转化并置为won，任一步失败则整体回滚
func (s *LeadService) ConvertToDeal(orgID, leadID, operatorID uint) (*models.Deal, error) {
	var lead models.Lead
	if err := s.db.Where("id = ? AND organization_id = ?", leadID, orgID).First(&lead).Error; err != nil {
		return nil, err
	}

	if lead.ConvertedToDeal {
		return nil, fmt.Errorf("线索已转化为商机")
	}
	if lead.Status == models.LeadStatusLost {
		return nil, fmt.Errorf("已丢失的线索不能转化")
	}

	deal := &models.Deal{
		OrganizationID:    orgID,
		LeadID:            &lead.ID,
		Title:             lead.Title,
		Stage:             models.DealStageProspecting,
		Value:             lead.Value,
		Probability:       lead.Probability,
		AssignedTo:        lead.AssignedTo,
		ExpectedCloseDate: lead.ExpectedCloseDate,
		CreatedBy:         operatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(deal).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lead{}).
			Where("id = ? AND organization_id = ?", lead.ID, orgID).
			Updates(map[string]interface{}{
				"status":            models.LeadStatusWon,
				"converted_to_deal": true,
				"deal_id":           deal.ID,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	publishChange(s.publisher, "leads", queue.ChangeUpdate, orgID, lead.ID)
	publishChange(s.publisher, "deals", queue.ChangeInsert, orgID, deal.ID)
	return deal, nil
}

// Delete 删除线索
func (s *LeadService) Delete(orgID, id uint) error {
	var lead models.Lead
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&lead).Error; err != nil {
		return err
	}

	// 已转化的线索保留作为转化链路的历史记录
	if lead.ConvertedToDeal {
		return fmt.Errorf("已转化的线索不能删除")
	}

	if err := s.db.Delete(&lead).Error; err != nil {
		return err
	}

	publishChange(s.publisher, "leads", queue.ChangeDelete, orgID, id)
	return nil
}
