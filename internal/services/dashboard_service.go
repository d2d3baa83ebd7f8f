package services

import (
	"math"
	"time"

	"modulyn/internal/models"
	"modulyn/pkg/logger"

	"gorm.io/gorm"
)

// DashboardService 仪表盘KPI聚合服务。
// 每项指标独立查询，单项失败记日志并以0兜底，不拖垮整个聚合
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// CRMKPIs 销售侧KPI
type CRMKPIs struct {
	TotalContacts     int64   `json:"total_contacts"`
	ActiveLeads       int64   `json:"active_leads"`
	OpenDeals         int64   `json:"open_deals"`
	PipelineValue     float64 `json:"pipeline_value"`
	NewLeadsThisMonth int64   `json:"new_leads_this_month"`
	LeadChange        float64 `json:"lead_change"`     // 较上月百分比
	ConversionRate    float64 `json:"conversion_rate"` // 本月线索转化率（百分比）
	TasksDueThisWeek  int64   `json:"tasks_due_this_week"`
	OverdueTasks      int64   `json:"overdue_tasks"`
}

// TradeKPIs 协会/房产侧KPI
type TradeKPIs struct {
	ActiveMembers       int64   `json:"active_members"`
	PastDueMembers      int64   `json:"past_due_members"`
	NewMembersThisMonth int64   `json:"new_members_this_month"`
	MemberChange        float64 `json:"member_change"` // 较上月百分比
	UpcomingEvents      int64   `json:"upcoming_events"`
	RegistrationsMonth  int64   `json:"registrations_this_month"`
	AvailableProperties int64   `json:"available_properties"`
	SoldThisMonth       int64   `json:"sold_this_month"`
	CampaignsSent       int64   `json:"campaigns_sent"`
}

// monthWindow 自然月窗口 [start, end)
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// dayStart 当地时区的当日零点
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// percentChange 环比百分比，上月为0时：本月也为0返回0，否则返回100
func percentChange(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	change := float64(current-previous) / float64(previous) * 100
	return math.Round(change*100) / 100
}

// metric 执行单项计数查询，失败时记日志并返回0
func (s *DashboardService) metric(name string, query *gorm.DB) int64 {
	var count int64
	if err := query.Count(&count).Error; err != nil {
		logger.GetLogger().Warnf("KPI子查询失败 [%s]: %v", name, err)
		return 0
	}
	return count
}

// GetCRMKPIs 聚合销售侧KPI
func (s *DashboardService) GetCRMKPIs(orgID uint) (*CRMKPIs, error) {
	appLogger := logger.GetLogger()
	now := time.Now()
	monthStart, monthEnd := monthWindow(now)
	lastMonthStart, lastMonthEnd := monthWindow(monthStart.AddDate(0, 0, -1))

	kpis := &CRMKPIs{}

	kpis.TotalContacts = s.metric("total_contacts",
		s.db.Model(&models.Contact{}).Where("organization_id = ?", orgID))

	kpis.ActiveLeads = s.metric("active_leads",
		s.db.Model(&models.Lead{}).
			Where("organization_id = ? AND status IN ?", orgID, models.ActiveLeadStatuses()))

	kpis.OpenDeals = s.metric("open_deals",
		s.db.Model(&models.Deal{}).
			Where("organization_id = ? AND stage IN ?", orgID, models.OpenDealStages()))

	// 在途商机金额
	var pipeline *float64
	err := s.db.Model(&models.Deal{}).
		Where("organization_id = ? AND stage IN ?", orgID, models.OpenDealStages()).
		Select("SUM(value)").
		Scan(&pipeline).Error
	if err != nil {
		appLogger.Warnf("KPI子查询失败 [pipeline_value]: %v", err)
	} else if pipeline != nil {
		kpis.PipelineValue = *pipeline
	}

	// 环比口径：两个月都按创建时间计数
	kpis.NewLeadsThisMonth = s.metric("new_leads_this_month",
		s.db.Model(&models.Lead{}).
			Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, monthStart, monthEnd))
	lastMonthLeads := s.metric("new_leads_last_month",
		s.db.Model(&models.Lead{}).
			Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, lastMonthStart, lastMonthEnd))
	kpis.LeadChange = percentChange(kpis.NewLeadsThisMonth, lastMonthLeads)

	// 转化率：本月创建的线索中已转化的占比，无线索时为0
	converted := s.metric("converted_leads_this_month",
		s.db.Model(&models.Lead{}).
			Where("organization_id = ? AND converted_to_deal = ? AND created_at >= ? AND created_at < ?",
				orgID, true, monthStart, monthEnd))
	if kpis.NewLeadsThisMonth > 0 {
		rate := float64(converted) / float64(kpis.NewLeadsThisMonth) * 100
		kpis.ConversionRate = math.Round(rate*100) / 100
	}

	weekStart := dayStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	kpis.TasksDueThisWeek = s.metric("tasks_due_this_week",
		s.db.Model(&models.Task{}).
			Where("organization_id = ? AND status IN ? AND due_date >= ? AND due_date < ?",
				orgID, models.OpenTaskStatuses(), weekStart, weekEnd))

	kpis.OverdueTasks = s.metric("overdue_tasks",
		s.db.Model(&models.Task{}).
			Where("organization_id = ? AND status IN ? AND due_date < ?",
				orgID, models.OpenTaskStatuses(), now))

	return kpis, nil
}

// GetTradeKPIs 聚合协会/房产侧KPI
func (s *DashboardService) GetTradeKPIs(orgID uint) (*TradeKPIs, error) {
	now := time.Now()
	monthStart, monthEnd := monthWindow(now)
	lastMonthStart, lastMonthEnd := monthWindow(monthStart.AddDate(0, 0, -1))

	kpis := &TradeKPIs{}

	kpis.ActiveMembers = s.metric("active_members",
		s.db.Model(&models.Member{}).
			Where("organization_id = ? AND subscription_status = ?", orgID, models.SubscriptionActive))

	kpis.PastDueMembers = s.metric("past_due_members",
		s.db.Model(&models.Member{}).
			Where("organization_id = ? AND subscription_status = ?", orgID, models.SubscriptionPastDue))

	kpis.NewMembersThisMonth = s.metric("new_members_this_month",
		s.db.Model(&models.Member{}).
			Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, monthStart, monthEnd))
	lastMonthMembers := s.metric("new_members_last_month",
		s.db.Model(&models.Member{}).
			Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, lastMonthStart, lastMonthEnd))
	kpis.MemberChange = percentChange(kpis.NewMembersThisMonth, lastMonthMembers)

	kpis.UpcomingEvents = s.metric("upcoming_events",
		s.db.Model(&models.Event{}).
			Where("organization_id = ? AND status IN ? AND start_time > ?",
				orgID,
				[]string{models.EventStatusPublished, models.EventStatusRegistrationOpen, models.EventStatusRegistrationClosed},
				now))

	kpis.RegistrationsMonth = s.metric("registrations_this_month",
		s.db.Model(&models.EventRegistration{}).
			Joins("JOIN events ON events.id = event_registrations.event_id").
			Where("events.organization_id = ? AND event_registrations.created_at >= ? AND event_registrations.created_at < ?",
				orgID, monthStart, monthEnd))

	kpis.AvailableProperties = s.metric("available_properties",
		s.db.Model(&models.Property{}).
			Where("organization_id = ? AND status = ?", orgID, models.PropertyStatusAvailable))

	kpis.SoldThisMonth = s.metric("sold_this_month",
		s.db.Model(&models.Property{}).
			Where("organization_id = ? AND status = ? AND updated_at >= ? AND updated_at < ?",
				orgID, models.PropertyStatusSold, monthStart, monthEnd))

	kpis.CampaignsSent = s.metric("campaigns_sent",
		s.db.Model(&models.EmailCampaign{}).
			Where("organization_id = ? AND status = ?", orgID, models.CampaignStatusSent))

	return kpis, nil
}
