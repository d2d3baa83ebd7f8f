package services

import (
	"fmt"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// ContactService 联系人服务
type ContactService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

// SetPublisher 注入实时变更发布器
func (s *ContactService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建联系人
func (s *ContactService) Create(orgID, createdBy uint, contact *models.Contact) (*models.Contact, error) {
	if contact.Type != "" && !models.IsValidContactType(contact.Type) {
		return nil, fmt.Errorf("无效的联系人类型: %s", contact.Type)
	}
	if contact.Status != "" && !models.IsValidContactStatus(contact.Status) {
		return nil, fmt.Errorf("无效的联系人状态: %s", contact.Status)
	}
	if contact.Type == "" {
		contact.Type = models.ContactTypeProspect
	}
	if contact.Status == "" {
		contact.Status = models.ContactStatusActive
	}

	// 租户归属只来自上下文，请求体里的组织ID一律覆盖
	contact.OrganizationID = orgID
	contact.CreatedBy = createdBy

	if err := s.db.Create(contact).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "contacts", queue.ChangeInsert, orgID, contact.ID)
	return contact, nil
}

// GetByID 获取单个联系人（跨租户一律按不存在处理）
func (s *ContactService) GetByID(orgID, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&contact).Error
	return &contact, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *ContactService) GetWithFiltersAndPage(orgID uint, contactType, status string, assignedTo uint, keyword string, page, pageSize int) ([]*models.Contact, int64, error) {
	var contacts []*models.Contact
	var total int64

	query := s.db.Model(&models.Contact{}).Where("organization_id = ?", orgID)

	if contactType != "" {
		query = query.Where("type = ?", contactType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if assignedTo > 0 {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name ILIKE ? OR email ILIKE ? OR company ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&contacts).Error
	if err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

// Update 更新联系人
func (s *ContactService) Update(orgID, id uint, updates map[string]interface{}) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&contact).Error; err != nil {
		return nil, err
	}

	if t, ok := updates["type"].(string); ok && !models.IsValidContactType(t) {
		return nil, fmt.Errorf("无效的联系人类型: %s", t)
	}
	if st, ok := updates["status"].(string); ok && !models.IsValidContactStatus(st) {
		return nil, fmt.Errorf("无效的联系人状态: %s", st)
	}

	// 租户归属与创建人不可改
	delete(updates, "organization_id")
	delete(updates, "created_by")

	if err := s.db.Model(&contact).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "contacts", queue.ChangeUpdate, orgID, contact.ID)
	return &contact, nil
}

// Delete 删除联系人
func (s *ContactService) Delete(orgID, id uint) error {
	// 仍被线索引用的联系人不允许删除
	var leadCount int64
	s.db.Model(&models.Lead{}).Where("contact_id = ? AND organization_id = ?", id, orgID).Count(&leadCount)
	if leadCount > 0 {
		return fmt.Errorf("联系人仍关联 %d 条线索，无法删除", leadCount)
	}

	result := s.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.Contact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	publishChange(s.publisher, "contacts", queue.ChangeDelete, orgID, id)
	return nil
}

// GetByType 按类型获取联系人
func (s *ContactService) GetByType(orgID uint, contactType string) ([]*models.Contact, error) {
	if !models.IsValidContactType(contactType) {
		return nil, fmt.Errorf("无效的联系人类型: %s", contactType)
	}

	var contacts []*models.Contact
	err := s.db.Where("organization_id = ? AND type = ?", orgID, contactType).
		Order("created_at DESC").
		Find(&contacts).Error
	return contacts, err
}

// Assign 指派联系人负责人
func (s *ContactService) Assign(orgID, id, userID uint) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&contact).Error; err != nil {
		return nil, err
	}

	// 负责人必须是同组织成员
	var count int64
	s.db.Model(&models.User{}).Where("id = ? AND organization_id = ?", userID, orgID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("指派对象不是本组织成员")
	}

	contact.AssignedTo = &userID
	if err := s.db.Save(&contact).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "contacts", queue.ChangeUpdate, orgID, contact.ID)
	return &contact, nil
}
