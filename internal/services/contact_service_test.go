package services

import (
	"testing"

	"modulyn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestContactGetByIDScopedToOrg(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewContactService(db)

	rows := sqlmock.NewRows([]string{"id", "organization_id", "name", "type", "status"}).
		AddRow(7, 1, "张三", models.ContactTypeClient, models.ContactStatusActive)
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(7, 1, 1).
		WillReturnRows(rows)

	contact, err := service.GetByID(1, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), contact.ID)
	assert.Equal(t, uint(1), contact.OrganizationID)
	assert.Equal(t, "张三", contact.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactGetByIDOtherOrgNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewContactService(db)

	// 其他组织的数据对当前组织一律表现为不存在
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(7, 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := service.GetByID(2, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContactCreateRejectsInvalidType(t *testing.T) {
	db, _ := newTestDB(t)
	service := NewContactService(db)

	_, err := service.Create(1, 10, &models.Contact{
		Name: "无效类型",
		Type: "alien",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无效的联系人类型")
}

func TestContactCreateStampsOrgFromContext(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewContactService(db)

	mock.ExpectQuery(`INSERT INTO "contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	// 请求体里伪造的组织ID必须被上下文覆盖
	contact := &models.Contact{Name: "李四", OrganizationID: 999}
	created, err := service.Create(1, 10, contact)
	require.NoError(t, err)
	assert.Equal(t, uint(1), created.OrganizationID)
	assert.Equal(t, uint(10), created.CreatedBy)
	assert.Equal(t, models.ContactTypeProspect, created.Type)
	assert.Equal(t, models.ContactStatusActive, created.Status)
}

func TestContactDeleteBlockedByLeads(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewContactService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := service.Delete(1, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无法删除")
}

func TestContactDeleteNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewContactService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM "contacts" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(7, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.Delete(2, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
