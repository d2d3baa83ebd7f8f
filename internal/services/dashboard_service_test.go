package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPercentChange(t *testing.T) {
	assert.Equal(t, float64(0), percentChange(0, 0))
	assert.Equal(t, float64(100), percentChange(5, 0))
	assert.Equal(t, float64(50), percentChange(15, 10))
	assert.Equal(t, float64(-50), percentChange(5, 10))
	// 四舍五入到两位小数
	assert.Equal(t, 33.33, percentChange(4, 3))
}

func TestMonthWindow(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	start, end := monthWindow(time.Date(2024, 3, 15, 10, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, loc), end)

	// 跨年
	start, end = monthWindow(time.Date(2024, 12, 31, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), end)
}

func TestDayStart(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	start := dayStart(time.Date(2024, 3, 15, 10, 30, 45, 0, loc))

	// 当地零点，而不是按UTC纪元截断
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), start)
	assert.Equal(t, loc, start.Location())
	assert.NotEqual(t, start, time.Date(2024, 3, 15, 10, 30, 45, 0, loc).Truncate(24*time.Hour))
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestGetCRMKPIsPartialFailureDoesNotAbort(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewDashboardService(db)

	// 联系人计数失败，该项兜底为0，其余指标照常返回
	mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts"`).
		WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(countRows(4))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "deals"`).
		WillReturnRows(countRows(2))
	mock.ExpectQuery(`SELECT SUM\(value\) FROM "deals"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(120000.0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(countRows(3)) // 本月新增
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(countRows(2)) // 上月新增
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(countRows(1)) // 本月已转化
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(countRows(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(countRows(1))

	kpis, err := service.GetCRMKPIs(1)
	require.NoError(t, err)

	assert.Equal(t, int64(0), kpis.TotalContacts)
	assert.Equal(t, int64(4), kpis.ActiveLeads)
	assert.Equal(t, int64(2), kpis.OpenDeals)
	assert.Equal(t, 120000.0, kpis.PipelineValue)
	assert.Equal(t, int64(3), kpis.NewLeadsThisMonth)
	assert.Equal(t, float64(50), kpis.LeadChange)
	assert.Equal(t, 33.33, kpis.ConversionRate)
	assert.Equal(t, int64(5), kpis.TasksDueThisWeek)
	assert.Equal(t, int64(1), kpis.OverdueTasks)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCRMKPIsNullPipelineSum(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewDashboardService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "deals"`).WillReturnRows(countRows(0))
	// 没有在途商机时SUM返回NULL
	mock.ExpectQuery(`SELECT SUM\(value\) FROM "deals"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).WillReturnRows(countRows(0))

	kpis, err := service.GetCRMKPIs(1)
	require.NoError(t, err)

	assert.Equal(t, float64(0), kpis.PipelineValue)
	assert.Equal(t, float64(0), kpis.LeadChange)
	assert.Equal(t, float64(0), kpis.ConversionRate)
}
