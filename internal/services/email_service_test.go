package services

import (
	"testing"
	"time"

	"modulyn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campaignRow(id, orgID uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "template_id", "name", "status"}).
		AddRow(id, orgID, 2, "月度简报", status)
}

func TestRecordMetricsDiscardsLateReport(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEmailService(db)

	mock.ExpectQuery(`SELECT \* FROM "email_campaigns" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(4, 1, 1).
		WillReturnRows(campaignRow(4, 1, models.CampaignStatusSent))
	mock.ExpectQuery(`SELECT \* FROM "campaign_metrics" WHERE campaign_id = \$1`).
		WithArgs(4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "sent", "delivered", "opened", "clicked", "bounced", "unsubscribed"}).
			AddRow(9, 4, 100, 95, 40, 10, 3, 1))
	mock.ExpectExec(`UPDATE "campaign_metrics" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// sent回落到90按迟到数据丢弃，opened前进到55正常采纳
	merged, err := service.RecordMetrics(1, 4, &models.CampaignMetrics{
		Sent:   90,
		Opened: 55,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(100), merged.Sent)
	assert.Equal(t, int64(55), merged.Opened)
	assert.Equal(t, int64(95), merged.Delivered)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMetricsCorrectionLowersValues(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEmailService(db)

	mock.ExpectQuery(`SELECT \* FROM "email_campaigns" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(4, 1, 1).
		WillReturnRows(campaignRow(4, 1, models.CampaignStatusSent))
	mock.ExpectQuery(`SELECT \* FROM "campaign_metrics" WHERE campaign_id = \$1`).
		WithArgs(4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "sent", "delivered", "opened", "clicked", "bounced", "unsubscribed"}).
			AddRow(9, 4, 100, 95, 40, 10, 3, 1))
	mock.ExpectExec(`UPDATE "campaign_metrics" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	merged, err := service.RecordMetrics(1, 4, &models.CampaignMetrics{
		Sent:      90,
		Delivered: 88,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(90), merged.Sent)
	assert.Equal(t, int64(88), merged.Delivered)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMetricsFirstReportCreatesRow(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEmailService(db)

	mock.ExpectQuery(`SELECT \* FROM "email_campaigns" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(4, 1, 1).
		WillReturnRows(campaignRow(4, 1, models.CampaignStatusSent))
	mock.ExpectQuery(`SELECT \* FROM "campaign_metrics" WHERE campaign_id = \$1`).
		WithArgs(4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "campaign_metrics"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	merged, err := service.RecordMetrics(1, 4, &models.CampaignMetrics{Sent: 120}, false)
	require.NoError(t, err)
	assert.Equal(t, uint(4), merged.CampaignID)
	assert.Equal(t, int64(120), merged.Sent)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRejectsPastTime(t *testing.T) {
	db, _ := newTestDB(t)
	service := NewEmailService(db)

	_, err := service.Schedule(1, 4, time.Now().Add(-time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "晚于当前时间")
}

func TestSendRequiresQueue(t *testing.T) {
	db, _ := newTestDB(t)
	service := NewEmailService(db)

	// 未注入队列时立即失败，不触发任何查询
	_, err := service.Send(1, 4, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "队列未配置")
}

func TestCancelSentCampaignRejected(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEmailService(db)

	mock.ExpectQuery(`SELECT \* FROM "email_campaigns" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(4, 1, 1).
		WillReturnRows(campaignRow(4, 1, models.CampaignStatusSent))

	_, err := service.Cancel(1, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不允许取消")
}
