package services

import (
	"fmt"
	"unicode/utf8"

	"modulyn/internal/models"

	"gorm.io/gorm"
)

type OrganizationService struct {
	db *gorm.DB
}

// OrganizationStats 组织统计信息
type OrganizationStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// PlanCount 套餐分布统计
type PlanCount struct {
	Plan  string `json:"plan"`
	Count int64  `json:"count"`
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *OrganizationService) GetWithFiltersAndPage(status, keyword string, page, pageSize int) ([]*models.Organization, int64, error) {
	var orgs []*models.Organization
	var total int64

	query := s.db.Model(&models.Organization{})

	// 添加过滤条件
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&orgs).Error
	if err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}

// CreateWithOwner 创建组织并将创建人设为组织管理员（注册向导用，单事务）
func (s *OrganizationService) CreateWithOwner(ownerID uint, name, code, orgType, plan string) (*models.Organization, error) {
	if err := s.ValidateCreateParams(name, code); err != nil {
		return nil, err
	}
	if orgType == "" {
		orgType = models.OrgTypeGeneral
	}
	if plan == "" {
		plan = models.OrgPlanFree
	}

	// 检查代码是否重复
	var count int64
	s.db.Model(&models.Organization{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("组织代码已存在")
	}

	// 一个用户同一时间只能属于一个组织
	var owner models.User
	if err := s.db.First(&owner, ownerID).Error; err != nil {
		return nil, fmt.Errorf("用户不存在")
	}
	if owner.HasOrganization() {
		return nil, fmt.Errorf("用户已加入其他组织")
	}

	org := &models.Organization{
		Name:   name,
		Code:   code,
		Type:   orgType,
		Plan:   plan,
		Status: models.OrgStatusActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", ownerID).
			Updates(map[string]interface{}{
				"organization_id": org.ID,
				"is_org_admin":    true,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// GetByID 根据ID获取组织
func (s *OrganizationService) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	err := s.db.First(&org, id).Error
	return &org, err
}

// GetAllActive 获取所有激活的组织，并附带成员数量
func (s *OrganizationService) GetAllActive() ([]*models.Organization, error) {
	var orgs []*models.Organization
	err := s.db.Model(&models.Organization{}).
		Where("status = ?", models.OrgStatusActive).
		Order("created_at DESC").
		Find(&orgs).Error

	for i := range orgs {
		var memberCount int64
		s.db.Model(&models.User{}).Where("organization_id = ?", orgs[i].ID).Count(&memberCount)
		orgs[i].MemberCount = int(memberCount)
	}

	return orgs, err
}

// Update 更新组织（代码不可变）
func (s *OrganizationService) Update(id uint, name, orgType, plan string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.First(&org, id).Error
	if err != nil {
		return nil, err
	}

	if name != "" {
		if !s.ValidateName(name) {
			return nil, fmt.Errorf("组织名称长度必须在2-50个字符之间")
		}
		org.Name = name
	}
	if orgType != "" {
		org.Type = orgType
	}
	if plan != "" {
		org.Plan = plan
	}

	err = s.db.Save(&org).Error
	return &org, err
}

// Delete 删除组织
func (s *OrganizationService) Delete(id uint) error {
	// 仍有成员时不允许删除
	var count int64
	s.db.Model(&models.User{}).Where("organization_id = ?", id).Count(&count)
	if count > 0 {
		return fmt.Errorf("组织内仍有成员，无法删除")
	}
	return s.db.Delete(&models.Organization{}, id).Error
}

// Activate 激活组织
func (s *OrganizationService) Activate(id uint) (*models.Organization, error) {
	return s.setStatus(id, models.OrgStatusActive)
}

// Deactivate 停用组织
func (s *OrganizationService) Deactivate(id uint) (*models.Organization, error) {
	return s.setStatus(id, models.OrgStatusInactive)
}

func (s *OrganizationService) setStatus(id uint, status string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, id).Error; err != nil {
		return nil, err
	}

	org.Status = status
	if err := s.db.Save(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// GetStats 获取组织统计
func (s *OrganizationService) GetStats() (*OrganizationStats, error) {
	stats := &OrganizationStats{}

	s.db.Model(&models.Organization{}).Count(&stats.Total)
	s.db.Model(&models.Organization{}).Where("status = ?", models.OrgStatusActive).Count(&stats.Active)
	s.db.Model(&models.Organization{}).Where("status = ?", models.OrgStatusInactive).Count(&stats.Inactive)

	return stats, nil
}

// GetPlanDistribution 统计各套餐的组织数量
func (s *OrganizationService) GetPlanDistribution() ([]*PlanCount, error) {
	var results []*PlanCount
	err := s.db.Model(&models.Organization{}).
		Select("plan, COUNT(*) as count").
		Group("plan").
		Find(&results).Error
	return results, err
}

// ========== 验证相关方法 ==========

// ValidateName 验证组织名称
func (s *OrganizationService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 50
}

// ValidateCode 验证组织代码
func (s *OrganizationService) ValidateCode(code string) bool {
	if len(code) < 2 || len(code) > 20 {
		return false
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}

// ValidateCreateParams 验证创建参数
func (s *OrganizationService) ValidateCreateParams(name, code string) error {
	if !s.ValidateName(name) {
		return fmt.Errorf("组织名称长度必须在2-50个字符之间")
	}
	if !s.ValidateCode(code) {
		return fmt.Errorf("组织代码长度必须在2-20个字符之间，且只能包含字母、数字和连字符")
	}
	return nil
}
