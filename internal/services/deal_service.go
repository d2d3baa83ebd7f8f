package services

import (
	"fmt"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// DealService 商机服务
type DealService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewDealService(db *gorm.DB) *DealService {
	return &DealService{db: db}
}

func (s *DealService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建商机（不经线索直接录入）
func (s *DealService) Create(orgID, createdBy uint, deal *models.Deal) (*models.Deal, error) {
	if deal.Stage == "" {
		deal.Stage = models.DealStageProspecting
	}
	if !models.IsValidDealStage(deal.Stage) {
		return nil, fmt.Errorf("无效的商机阶段: %s", deal.Stage)
	}
	if deal.Value < 0 {
		return nil, fmt.Errorf("商机金额不能为负")
	}
	if deal.Currency == "" {
		deal.Currency = "USD"
	}

	deal.OrganizationID = orgID
	deal.CreatedBy = createdBy
	deal.LeadID = nil

	if err := s.db.Create(deal).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "deals", queue.ChangeInsert, orgID, deal.ID)
	return deal, nil
}

// GetByID 获取单个商机
func (s *DealService) GetByID(orgID, id uint) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&deal).Error
	return &deal, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *DealService) GetWithFiltersAndPage(orgID uint, stage string, assignedTo uint, keyword string, page, pageSize int) ([]*models.Deal, int64, error) {
	var deals []*models.Deal
	var total int64

	query := s.db.Model(&models.Deal{}).Where("organization_id = ?", orgID)

	if stage != "" {
		query = query.Where("stage = ?", stage)
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
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&deals).Error
	if err != nil {
		return nil, 0, err
	}

	return deals, total, nil
}

// GetByStage 按阶段获取商机
func (s *DealService) GetByStage(orgID uint, stage string) ([]*models.Deal, error) {
	if !models.IsValidDealStage(stage) {
		return nil, fmt.Errorf("无效的商机阶段: %s", stage)
	}

	var deals []*models.Deal
	err := s.db.Where("organization_id = ? AND stage = ?", orgID, stage).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

// GetByValueRange 按金额范围获取商机（max为0表示不设上限）
func (s *DealService) GetByValueRange(orgID uint, min, max float64) ([]*models.Deal, error) {
	if min < 0 {
		return nil, fmt.Errorf("金额下限不能为负")
	}
	if max > 0 && max < min {
		return nil, fmt.Errorf("金额上限不能小于下限")
	}

	query := s.db.Where("organization_id = ? AND value >= ?", orgID, min)
	if max > 0 {
		query = query.Where("value <= ?", max)
	}

	var deals []*models.Deal
	err := query.Order("value DESC").Find(&deals).Error
	return deals, err
}

// Update 更新商机基本信息（阶段走UpdateStage）
func (s *DealService) Update(orgID, id uint, updates map[string]interface{}) (*models.Deal, error) {
	var deal models.Deal
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&deal).Error; err != nil {
		return nil, err
	}

	if v, ok := updates["value"].(float64); ok && v < 0 {
		return nil, fmt.Errorf("商机金额不能为负")
	}

	delete(updates, "stage")
	delete(updates, "closed_at")
	delete(updates, "organization_id")
	delete(updates, "lead_id")
	delete(updates, "created_by")

	if err := s.db.Model(&deal).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "deals", queue.ChangeUpdate, orgID, deal.ID)
	return &deal, nil
}

// UpdateStage 推进商机阶段，进入终态时记录关闭时间
func (s *DealService) UpdateStage(orgID, id uint, stage string) (*models.Deal, error) {
	if !models.IsValidDealStage(stage) {
		return nil, fmt.Errorf("无效的商机阶段: %s", stage)
	}

	var deal models.Deal
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&deal).Error; err != nil {
		return nil, err
	}

	if !deal.CanTransitionTo(stage) {
		return nil, fmt.Errorf("商机阶段不能从 %s 变更为 %s", deal.Stage, stage)
	}

	deal.Stage = stage
	if stage == models.DealStageClosedWon || stage == models.DealStageClosedLost {
		now := time.Now()
		deal.ClosedAt = &now
	}

	if err := s.db.Save(&deal).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "deals", queue.ChangeUpdate, orgID, deal.ID)
	return &deal, nil
}

// Delete 删除商机
func (s *DealService) Delete(orgID, id uint) error {
	var deal models.Deal
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&deal).Error; err != nil {
		return err
	}

	// 由线索转化而来的商机保留转化链路
	if deal.LeadID != nil {
		return fmt.Errorf("由线索转化的商机不能删除")
	}

	if err := s.db.Delete(&deal).Error; err != nil {
		return err
	}

	publishChange(s.publisher, "deals", queue.ChangeDelete, orgID, id)
	return nil
}
