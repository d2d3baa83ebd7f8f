package services

import (
	"errors"
	"fmt"

	"modulyn/internal/models"
	"modulyn/pkg/queue"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventService 活动服务
type EventService struct {
	db        *gorm.DB
	publisher ChangePublisher
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) SetPublisher(p ChangePublisher) {
	s.publisher = p
}

// Create 创建活动（初始为草稿）
func (s *EventService) Create(orgID, createdBy uint, event *models.Event) (*models.Event, error) {
	if event.Type == "" {
		event.Type = models.EventTypeMeeting
	}
	if event.Capacity < 0 {
		return nil, fmt.Errorf("活动容量不能为负")
	}
	if event.StartTime != nil && event.EndTime != nil && !event.EndTime.After(*event.StartTime) {
		return nil, fmt.Errorf("活动结束时间必须晚于开始时间")
	}

	event.OrganizationID = orgID
	event.CreatedBy = createdBy
	event.Status = models.EventStatusDraft
	event.CurrentRegistrations = 0

	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "events", queue.ChangeInsert, orgID, event.ID)
	return event, nil
}

// GetByID 获取单个活动
func (s *EventService) GetByID(orgID, id uint) (*models.Event, error) {
	var event models.Event
	err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&event).Error
	return &event, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *EventService) GetWithFiltersAndPage(orgID uint, eventType, status, keyword string, page, pageSize int) ([]*models.Event, int64, error) {
	var events []*models.Event
	var total int64

	query := s.db.Model(&models.Event{}).Where("organization_id = ?", orgID)

	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title ILIKE ? OR location ILIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Update 更新活动基本信息（状态走UpdateStatus）
func (s *EventService) Update(orgID, id uint, updates map[string]interface{}) (*models.Event, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	delete(updates, "status")
	delete(updates, "current_registrations")
	delete(updates, "organization_id")
	delete(updates, "created_by")

	if c, ok := updates["capacity"]; ok {
		capacity, isFloat := c.(float64)
		if isFloat && int(capacity) < event.CurrentRegistrations {
			return nil, fmt.Errorf("容量不能小于当前报名人数 %d", event.CurrentRegistrations)
		}
	}

	if err := s.db.Model(&event).Updates(updates).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "events", queue.ChangeUpdate, orgID, event.ID)
	return &event, nil
}

// UpdateStatus 流转活动状态
func (s *EventService) UpdateStatus(orgID, id uint, status string) (*models.Event, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	if !event.CanTransitionTo(status) {
		return nil, fmt.Errorf("活动状态不能从 %s 变更为 %s", event.Status, status)
	}

	event.Status = status
	if err := s.db.Save(&event).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "events", queue.ChangeUpdate, orgID, event.ID)
	return &event, nil
}

// Register 报名活动。
// 占名额、写报名记录和计数器在同一事务里完成；
// 名额已满时转入候补队列，不占计数器
func (s *EventService) Register(orgID, eventID, userID uint) (*models.EventRegistration, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	if event.Status != models.EventStatusRegistrationOpen {
		return nil, fmt.Errorf("活动当前不接受报名")
	}

	// 同一用户不能重复报名（已取消的可以重新报名）
	var existing models.EventRegistration
	err := s.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && existing.Status != models.RegistrationCancelled {
		return nil, fmt.Errorf("已报名该活动")
	}
	rejoining := err == nil

	registration := &models.EventRegistration{
		EventID:       eventID,
		UserID:        userID,
		PaymentStatus: models.PaymentUnpaid,
		Code:          uuid.New().String(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 在事务内重读并加锁，避免并发报名超卖
		var locked models.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).First(&locked).Error; err != nil {
			return err
		}

		if locked.IsFull() {
			registration.Status = models.RegistrationWaitlist
		} else {
			registration.Status = models.RegistrationPending
		}

		if rejoining {
			registration.ID = existing.ID
			if err := tx.Model(&models.EventRegistration{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"status":         registration.Status,
					"payment_status": registration.PaymentStatus,
					"code":           registration.Code,
				}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(registration).Error; err != nil {
				return err
			}
		}

		if registration.Status != models.RegistrationWaitlist {
			return tx.Model(&models.Event{}).Where("id = ?", eventID).
				Update("current_registrations", gorm.Expr("current_registrations + 1")).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishChange(s.publisher, "event_registrations", queue.ChangeInsert, orgID, registration.ID)
	if registration.Status == models.RegistrationWaitlist {
		notifyUser(s.db, s.publisher, orgID, userID, models.NotificationTypeRegistration,
			"已进入候补", fmt.Sprintf("活动《%s》名额已满，您已进入候补队列", event.Title))
	} else {
		notifyUser(s.db, s.publisher, orgID, userID, models.NotificationTypeRegistration,
			"报名成功", fmt.Sprintf("您已报名活动《%s》，请妥善保管签到码", event.Title))
	}
	return registration, nil
}

// CancelRegistration 取消报名。
// 释放的名额自动顺延给最早进入候补的报名
func (s *EventService) CancelRegistration(orgID, eventID, userID uint) error {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return err
	}

	var registration models.EventRegistration
	if err := s.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&registration).Error; err != nil {
		return err
	}

	if registration.Status == models.RegistrationCancelled {
		return fmt.Errorf("报名已取消")
	}
	if registration.Status == models.RegistrationAttended {
		return fmt.Errorf("已签到的报名不能取消")
	}

	occupiedSeat := registration.CountsTowardCapacity()
	var promoted *models.EventRegistration

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EventRegistration{}).
			Where("id = ?", registration.ID).
			Update("status", models.RegistrationCancelled).Error; err != nil {
			return err
		}

		if !occupiedSeat {
			return nil
		}

		// 把名额让给最早的候补者，没有候补就释放计数器
		var waitlisted models.EventRegistration
		err := tx.Where("event_id = ? AND status = ?", eventID, models.RegistrationWaitlist).
			Order("created_at ASC").
			First(&waitlisted).Error
		if err == nil {
			promoted = &waitlisted
			return tx.Model(&models.EventRegistration{}).
				Where("id = ?", waitlisted.ID).
				Update("status", models.RegistrationPending).Error
		}
		if err == gorm.ErrRecordNotFound {
			return tx.Model(&models.Event{}).Where("id = ?", eventID).
				Update("current_registrations", gorm.Expr("current_registrations - 1")).Error
		}
		return err
	})
	if err != nil {
		return err
	}

	publishChange(s.publisher, "event_registrations", queue.ChangeUpdate, orgID, registration.ID)
	if promoted != nil {
		notifyUser(s.db, s.publisher, orgID, promoted.UserID, models.NotificationTypeRegistration,
			"候补转正", fmt.Sprintf("活动《%s》空出名额，您的候补报名已转为待确认", event.Title))
	}
	return nil
}

// ConfirmRegistration 确认报名（标记付款）
func (s *EventService) ConfirmRegistration(orgID, eventID, userID uint) (*models.EventRegistration, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	var registration models.EventRegistration
	if err := s.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&registration).Error; err != nil {
		return nil, err
	}

	if registration.Status != models.RegistrationPending {
		return nil, fmt.Errorf("只有待确认的报名可以确认")
	}

	registration.Status = models.RegistrationConfirmed
	registration.PaymentStatus = models.PaymentPaid
	if err := s.db.Save(&registration).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "event_registrations", queue.ChangeUpdate, orgID, registration.ID)
	return &registration, nil
}

// CheckIn 凭签到码签到
func (s *EventService) CheckIn(orgID, eventID uint, code string) (*models.EventRegistration, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	var registration models.EventRegistration
	if err := s.db.Where("event_id = ? AND code = ?", eventID, code).First(&registration).Error; err != nil {
		return nil, err
	}

	if registration.Status == models.RegistrationCancelled || registration.Status == models.RegistrationWaitlist {
		return nil, fmt.Errorf("报名状态不允许签到")
	}
	if registration.Status == models.RegistrationAttended {
		return nil, fmt.Errorf("已签到，请勿重复操作")
	}

	registration.Status = models.RegistrationAttended
	if err := s.db.Save(&registration).Error; err != nil {
		return nil, err
	}

	publishChange(s.publisher, "event_registrations", queue.ChangeUpdate, orgID, registration.ID)
	return &registration, nil
}

// GetRegistrations 获取活动的报名列表
func (s *EventService) GetRegistrations(orgID, eventID uint, status string) ([]*models.EventRegistration, error) {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}

	query := s.db.Where("event_id = ?", eventID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var registrations []*models.EventRegistration
	err := query.Order("created_at ASC").Find(&registrations).Error
	return registrations, err
}

// Delete 删除活动（仅限草稿）
func (s *EventService) Delete(orgID, id uint) error {
	var event models.Event
	if err := s.db.Where("id = ? AND organization_id = ?", id, orgID).First(&event).Error; err != nil {
		return err
	}

	if event.Status != models.EventStatusDraft {
		return fmt.Errorf("只有草稿状态的活动可以删除")
	}

	if err := s.db.Delete(&event).Error; err != nil {
		return err
	}

	publishChange(s.publisher, "events", queue.ChangeDelete, orgID, id)
	return nil
}
