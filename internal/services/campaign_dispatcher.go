package services

import (
	"fmt"
	"sync"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/config"
	"modulyn/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CampaignDispatcher 营销活动调度器。
// 周期扫描到期的已预约活动并触发发送
type CampaignDispatcher struct {
	db           *gorm.DB
	emailService *EmailService
	cron         *cron.Cron
	entryID      cron.EntryID
	mu           sync.RWMutex
	running      bool
}

func NewCampaignDispatcher(db *gorm.DB, emailService *EmailService) *CampaignDispatcher {
	return &CampaignDispatcher{
		db:           db,
		emailService: emailService,
		cron:         cron.New(),
	}
}

// Start 启动调度器
func (d *CampaignDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("调度器已在运行")
	}

	cfg := config.GetConfig()
	entryID, err := d.cron.AddFunc(cfg.Campaign.DispatchCron, d.dispatchDue)
	if err != nil {
		return fmt.Errorf("注册调度任务失败: %v", err)
	}

	d.entryID = entryID
	d.cron.Start()
	d.running = true

	logger.GetLogger().Infof("活动调度器已启动 [cron=%s batch=%d]", cfg.Campaign.DispatchCron, cfg.Campaign.BatchSize)
	return nil
}

// Stop 停止调度器
func (d *CampaignDispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.cron.Remove(d.entryID)
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.running = false

	logger.GetLogger().Info("活动调度器已停止")
}

// IsRunning 调度器是否在运行
func (d *CampaignDispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// dispatchDue 扫描并触发到期的已预约活动。
// 单个活动失败只记日志，不影响本批其余活动
func (d *CampaignDispatcher) dispatchDue() {
	appLogger := logger.GetLogger()
	batch := config.GetConfig().Campaign.BatchSize

	var campaigns []*models.EmailCampaign
	err := d.db.Where("status = ? AND scheduled_at <= ?", models.CampaignStatusScheduled, time.Now()).
		Order("scheduled_at ASC").
		Limit(batch).
		Find(&campaigns).Error
	if err != nil {
		appLogger.Errorf("扫描到期活动失败: %v", err)
		return
	}

	if len(campaigns) == 0 {
		return
	}

	appLogger.Infof("发现 %d 个到期活动，开始派发", len(campaigns))
	for _, campaign := range campaigns {
		if _, err := d.emailService.Send(campaign.OrganizationID, campaign.ID, campaign.CreatedBy); err != nil {
			appLogger.Errorf("派发活动失败 [campaign=%d org=%d]: %v", campaign.ID, campaign.OrganizationID, err)
			continue
		}
		notifyUser(d.db, d.emailService.publisher, campaign.OrganizationID, campaign.CreatedBy,
			models.NotificationTypeCampaign, "活动已开始发送",
			fmt.Sprintf("预约的营销活动「%s」已到期并进入发送队列", campaign.Name))
	}
}
