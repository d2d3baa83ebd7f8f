package services

import (
	"fmt"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// PropertyService 房源服务（房产类组织使用）
type PropertyService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

func (s *PropertyService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建房源
func (s *PropertyService) Create(orgID, createdBy uint, property *models.Property) (*models.Property, error) {
	if property.Status == "" {
		property.Status = models.PropertyStatusAvailable
	}
	if !models.IsValidPropertyStatus(property.Status) {
		return nil, fmt.Errorf("无效的房源状态: %s", property.Status)
	}
	if property.Price < 0 {
		return nil, fmt.Errorf("房源价格不能为负")
	}

	property.OrganizationID = orgID
	property.CreatedBy = createdBy

	if err := s.db.Create(property).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "properties", queue.ChangeInsert, orgID, property.ID)
	return property, nil
}

// GetByID 获取单个房源
func (s *PropertyService) GetByID(orgID, id uint) (*models.Property, error) {
	var property models.Property
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&property).Error
	return &property, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *PropertyService) GetWithFiltersAndPage(orgID uint, propertyType, status, city string, minPrice, maxPrice float64, keyword string, page, pageSize int) ([]*models.Property, int64, error) {
	var properties []*models.Property
	var total int64

	query := s.db.Model(&models.Property{}).Where("organization_id = ?", orgID)

	if propertyType != "" {
		query = query.Where("type = ?", propertyType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if city != "" {
		query = query.Where("city = ?", city)
	}
	if minPrice > 0 {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice > 0 {
		query = query.Where("price <= ?", maxPrice)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title ILIKE ? OR address ILIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&properties).Error
	if err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

// GetActive 获取所有在售/在租房源
func (s *PropertyService) GetActive(orgID uint) ([]*models.Property, error) {
	var properties []*models.Property
	err := s.db.Where("organization_id = ? AND status IN ?", orgID, models.ActivePropertyStatuses()).
		Order("created_at DESC").
		Find(&properties).Error
	return properties, err
}

// Update 更新房源
func (s *PropertyService) Update(orgID, id uint, updates map[string]interface{}) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&property).Error; err != nil {
		return nil, err
	}

	if st, ok := updates["status"].(string); ok && !models.IsValidPropertyStatus(st) {
		return nil, fmt.Errorf("无效的房源状态: %s", st)
	}
	if p, ok := updates["price"].(float64); ok && p < 0 {
		return nil, fmt.Errorf("房源价格不能为负")
	}

	delete(updates, "organization_id")
	delete(updates, "created_by")

	if err := s.db.Model(&property).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "properties", queue.ChangeUpdate, orgID, property.ID)
	return &property, nil
}

// UpdateStatus 变更房源状态
func (s *PropertyService) UpdateStatus(orgID, id uint, status string) (*models.Property, error) {
	if !models.IsValidPropertyStatus(status) {
		return nil, fmt.Errorf("无效的房源状态: %s", status)
	}

	var property models.Property
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&property).Error; err != nil {
		return nil, err
	}

	property.Status = status
	if err := s.db.Save(&property).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "properties", queue.ChangeUpdate, orgID, property.ID)
	return &property, nil
}

// Delete 删除房源
func (s *PropertyService) Delete(orgID, id uint) error {
	result := s.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.Property{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	publishChange(s.publisher, "properties", queue.ChangeDelete, orgID, id)
	return nil
}
