package services

import (
	"testing"

	"modulyn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLeadConvertToDealSingleTransaction(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	leadRows := sqlmock.NewRows([]string{
		"id", "organization_id", "contact_id", "title", "status",
		"value", "probability", "converted_to_deal",
	}).AddRow(5, 1, 2, "年度服务合同", models.LeadStatusNegotiation, 50000.0, 70, false)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(5, 1, 1).
		WillReturnRows(leadRows)

	// 创建商机和标记线索在同一事务内
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "deals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "leads" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deal, err := service.ConvertToDeal(1, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(9), deal.ID)
	assert.Equal(t, uint(1), deal.OrganizationID)
	require.NotNil(t, deal.LeadID)
	assert.Equal(t, uint(5), *deal.LeadID)
	assert.Equal(t, models.DealStageProspecting, deal.Stage)
	assert.Equal(t, 50000.0, deal.Value)
	assert.Equal(t, 70, deal.Probability)
	assert.Equal(t, uint(10), deal.CreatedBy)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadConvertToDealRollsBackOnFailure(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	leadRows := sqlmock.NewRows([]string{"id", "organization_id", "contact_id", "status", "converted_to_deal"}).
		AddRow(5, 1, 2, models.LeadStatusQualified, false)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(5, 1, 1).
		WillReturnRows(leadRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "deals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "leads" SET`).
		WillReturnError(gorm.ErrInvalidData)
	mock.ExpectRollback()

	_, err := service.ConvertToDeal(1, 5, 10)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadConvertToDealAlreadyConverted(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	leadRows := sqlmock.NewRows([]string{"id", "organization_id", "status", "converted_to_deal"}).
		AddRow(5, 1, models.LeadStatusWon, true)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(5, 1, 1).
		WillReturnRows(leadRows)

	_, err := service.ConvertToDeal(1, 5, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已转化")
}

func TestLeadConvertToDealLostLead(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	leadRows := sqlmock.NewRows([]string{"id", "organization_id", "status", "converted_to_deal"}).
		AddRow(5, 1, models.LeadStatusLost, false)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(5, 1, 1).
		WillReturnRows(leadRows)

	_, err := service.ConvertToDeal(1, 5, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不能转化")
}

func TestLeadUpdateStatusRejectsInvalidTransition(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	leadRows := sqlmock.NewRows([]string{"id", "organization_id", "status"}).
		AddRow(5, 1, models.LeadStatusNew)
	mock.ExpectQuery(`SELECT \* FROM "leads" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(5, 1, 1).
		WillReturnRows(leadRows)

	// new不能直接won，必须走完整流程
	_, err := service.UpdateStatus(1, 5, models.LeadStatusWon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不能从")
}

func TestLeadCreateRejectsForeignContact(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewLeadService(db)

	// 联系人属于其他组织时按不存在处理
	mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := service.Create(1, 10, &models.Lead{ContactID: 99, Title: "越权线索"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "联系人不存在")
}
