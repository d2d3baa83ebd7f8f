package services

import (
	"encoding/json"
	"fmt"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemberService 会员服务（协会类组织使用）
type MemberService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

func (s *MemberService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建会员档案
func (s *MemberService) Create(orgID uint, member *models.Member) (*models.Member, error) {
	if member.MembershipType == "" {
		member.MembershipType = models.MembershipRegular
	}
	if !models.IsValidMembershipType(member.MembershipType) {
		return nil, fmt.Errorf("无效的会籍类型: %s", member.MembershipType)
	}
	if member.SubscriptionStatus == "" {
		member.SubscriptionStatus = models.SubscriptionActive
	}
	if !models.IsValidSubscriptionStatus(member.SubscriptionStatus) {
		return nil, fmt.Errorf("无效的订阅状态: %s", member.SubscriptionStatus)
	}

	// 只能为本组织成员建档，且一人一份
	var count int64
	s.db.Model(&models.User{}).Where("id = ? AND organization_id = ?", member.UserID, orgID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("用户不是本组织成员")
	}
	s.db.Model(&models.Member{}).Where("organization_id = ? AND user_id = ?", orgID, member.UserID).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("该用户已有会员档案")
	}

	member.OrganizationID = orgID
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}

	if err := s.db.Create(member).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "members", queue.ChangeInsert, orgID, member.ID)
	return member, nil
}

// GetByID 获取单个会员档案
func (s *MemberService) GetByID(orgID, id uint) (*models.Member, error) {
	var member models.Member
	err := s.db.Preload("User").
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&member).Error
	return &member, err
}

// GetByUserID 根据用户ID获取会员档案
func (s *MemberService) GetByUserID(orgID, userID uint) (*models.Member, error) {
	var member models.Member
	err := s.db.Preload("User").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	return &member, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *MemberService) GetWithFiltersAndPage(orgID uint, membershipType, subscriptionStatus string, page, pageSize int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	query := s.db.Model(&models.Member{}).Where("organization_id = ?", orgID)

	if membershipType != "" {
		query = query.Where("membership_type = ?", membershipType)
	}
	if subscriptionStatus != "" {
		query = query.Where("subscription_status = ?", subscriptionStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("User").
		Order("created_at DESC").Offset(offset).Limit(pageSize).
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// UpdateMembershipType 变更会籍类型
func (s *MemberService) UpdateMembershipType(orgID, id uint, membershipType string) (*models.Member, error) {
	if !models.IsValidMembershipType(membershipType) {
		return nil, fmt.Errorf("无效的会籍类型: %s", membershipType)
	}

	var member models.Member
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&member).Error; err != nil {
		return nil, err
	}

	member.MembershipType = membershipType
	if err := s.db.Save(&member).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "members", queue.ChangeUpdate, orgID, member.ID)
	return &member, nil
}

// UpdateSubscriptionStatus 变更订阅状态
func (s *MemberService) UpdateSubscriptionStatus(orgID, id uint, status string) (*models.Member, error) {
	if !models.IsValidSubscriptionStatus(status) {
		return nil, fmt.Errorf("无效的订阅状态: %s", status)
	}

	var member models.Member
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&member).Error; err != nil {
		return nil, err
	}

	member.SubscriptionStatus = status
	if err := s.db.Save(&member).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "members", queue.ChangeUpdate, orgID, member.ID)
	return &member, nil
}

// Renew 续费：延长续费日期并恢复激活状态
func (s *MemberService) Renew(orgID, id uint, renewalDate time.Time) (*models.Member, error) {
	var member models.Member
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&member).Error; err != nil {
		return nil, err
	}

	if member.RenewalDate != nil && !renewalDate.After(*member.RenewalDate) {
		return nil, fmt.Errorf("新的续费日期必须晚于当前续费日期")
	}

	member.RenewalDate = &renewalDate
	member.SubscriptionStatus = models.SubscriptionActive
	if err := s.db.Save(&member).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "members", queue.ChangeUpdate, orgID, member.ID)
	return &member, nil
}

// 会员档案上的字符串集合字段
const (
	MemberSetCertifications  = "certifications"
	MemberSetSpecializations = "specializations"
	MemberSetCommittees      = "committees"
)

// AddToSet 向集合字段添加一项（幂等，已存在不重复）
func (s *MemberService) AddToSet(orgID, id uint, field, value string) (*models.Member, error) {
	return s.mutateSet(orgID, id, field, value, true)
}

// RemoveFromSet 从集合字段移除一项（幂等，不存在不报错）
func (s *MemberService) RemoveFromSet(orgID, id uint, field, value string) (*models.Member, error) {
	return s.mutateSet(orgID, id, field, value, false)
}

func (s *MemberService) mutateSet(orgID, id uint, field, value string, add bool) (*models.Member, error) {
	if value == "" {
		return nil, fmt.Errorf("集合项不能为空")
	}

	var member models.Member
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&member).Error; err != nil {
		return nil, err
	}

	var raw datatypes.JSON
	switch field {
	case MemberSetCertifications:
		raw = member.Certifications
	case MemberSetSpecializations:
		raw = member.Specializations
	case MemberSetCommittees:
		raw = member.Committees
	default:
		return nil, fmt.Errorf("无效的集合字段: %s", field)
	}

	var items []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("解析集合字段失败: %v", err)
		}
	}

	if add {
		for _, item := range items {
			if item == value {
				return &member, nil
			}
		}
		items = append(items, value)
	} else {
		filtered := items[:0]
		for _, item := range items {
			if item != value {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	switch field {
	case MemberSetCertifications:
		member.Certifications = encoded
	case MemberSetSpecializations:
		member.Specializations = encoded
	case MemberSetCommittees:
		member.Committees = encoded
	}

	if err := s.db.Model(&member).Update(field, datatypes.JSON(encoded)).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "members", queue.ChangeUpdate, orgID, member.ID)
	return &member, nil
}

// Delete 删除会员档案
func (s *MemberService) Delete(orgID, id uint) error {
	result := s.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	publishChange(s.publisher, "members", queue.ChangeDelete, orgID, id)
	return nil
}
