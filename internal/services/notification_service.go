package services

import (
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/logger"
	"modulyn/pkg/queue"

	"gorm.io/gorm"
)

// NotificationService 站内通知服务
type NotificationService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建通知并推送实时事件
func (s *NotificationService) Create(orgID, userID uint, notifType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		OrganizationID: orgID,
		UserID:         userID,
		Type:           notifType,
		Title:          title,
		Message:        message,
		IsRead:         false,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "notifications", queue.ChangeInsert, orgID, notification.ID)
	return notification, nil
}

// notifyUser 业务流程内写入站内通知。
// 通知是附属动作，失败只记日志，不影响主流程
func notifyUser(db *gorm.DB, p ChangePublisher, orgID, userID uint, notifType, title, message string) {
	notification := &models.Notification{
		OrganizationID: orgID,
		UserID:         userID,
		Type:           notifType,
		Title:          title,
		Message:        message,
	}

	if err := db.Create(notification).Error; err != nil {
		logger.GetLogger().Warnf("写入通知失败 [org=%d user=%d type=%s]: %v", orgID, userID, notifType, err)
		return
	}

	publishChange(p, "notifications", queue.ChangeInsert, orgID, notification.ID)
}

// GetUserNotifications 获取用户的通知列表（分页）
func (s *NotificationService) GetUserNotifications(orgID, userID uint, unreadOnly bool, page, pageSize int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	query := s.db.Model(&models.Notification{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&notifications).Error
	return notifications, total, err
}

// GetUnreadCount 获取未读通知数
func (s *NotificationService) GetUnreadCount(orgID, userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("organization_id = ? AND user_id = ? AND is_read = ?", orgID, userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记单条通知已读
func (s *NotificationService) MarkRead(orgID, userID, id uint) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND organization_id = ? AND user_id = ?", id, orgID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead 标记用户全部通知已读，返回标记数量
func (s *NotificationService) MarkAllRead(orgID, userID uint) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("organization_id = ? AND user_id = ? AND is_read = ?", orgID, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	return result.RowsAffected, result.Error
}

// Delete 删除通知
func (s *NotificationService) Delete(orgID, userID, id uint) error {
	result := s.db.Where("id = ? AND organization_id = ? AND user_id = ?", id, orgID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
