package services

import (
	"fmt"
	"time"

	"modulyn/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 注册用户（注册后尚未加入组织）
func (s *UserService) Register(username, email, password, name string) (*models.User, error) {
	// 检查用户名是否已存在
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("用户名已存在")
	}

	// 检查邮箱是否已存在
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("邮箱已被注册")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Name:     name,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("密码加密失败: %v", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验用户名（或邮箱）和密码
func (s *UserService) Authenticate(account, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? OR email = ?", account, account).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("用户名或密码错误")
	}

	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("用户名或密码错误")
	}

	if user.Status != models.UserStatusActive {
		return nil, fmt.Errorf("用户已被禁用")
	}

	return &user, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Organization").First(&user, id).Error
	return &user, err
}

// GetOrgUsers 获取组织内的用户列表（分页）
func (s *UserService) GetOrgUsers(orgID uint, keyword string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{}).Where("organization_id = ?", orgID)
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("username ILIKE ? OR name ILIKE ? OR email ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&users).Error
	return users, total, err
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(id uint) error {
	now := time.Now()
	return s.db.Model(&models.User{}).Where("id = ?", id).
		Update("last_login_at", &now).Error
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(id uint, name string, phone, avatar *string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if phone != nil {
		user.Phone = phone
	}
	if avatar != nil {
		user.Avatar = avatar
	}

	err := s.db.Save(&user).Error
	return &user, err
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(id uint, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return fmt.Errorf("用户不存在")
	}

	if !user.CheckPassword(oldPassword) {
		return fmt.Errorf("原密码错误")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("密码加密失败: %v", err)
	}

	return s.db.Model(&user).Update("password_hash", user.PasswordHash).Error
}

// SetOrgAdmin 设置或取消组织管理员（仅限同组织成员）
func (s *UserService) SetOrgAdmin(orgID, userID uint, isAdmin bool) error {
	result := s.db.Model(&models.User{}).
		Where("id = ? AND organization_id = ?", userID, orgID).
		Update("is_org_admin", isAdmin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveFromOrg 将用户移出组织
func (s *UserService) RemoveFromOrg(orgID, userID uint) error {
	result := s.db.Model(&models.User{}).
		Where("id = ? AND organization_id = ?", userID, orgID).
		Updates(map[string]interface{}{
			"organization_id": nil,
			"is_org_admin":    false,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
