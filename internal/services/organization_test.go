package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	service := NewOrganizationService(nil)

	assert.True(t, service.ValidateName("某某协会"))
	assert.True(t, service.ValidateName("AB"))
	assert.False(t, service.ValidateName("A"))
	// 按字符数而非字节数校验
	assert.True(t, service.ValidateName("会员"))
	assert.False(t, service.ValidateName(""))
}

func TestValidateCode(t *testing.T) {
	service := NewOrganizationService(nil)

	assert.True(t, service.ValidateCode("acme-2024"))
	assert.True(t, service.ValidateCode("AB"))
	assert.False(t, service.ValidateCode("a"))
	assert.False(t, service.ValidateCode("含中文"))
	assert.False(t, service.ValidateCode("has space"))
	assert.False(t, service.ValidateCode("under_score"))
}

func TestCreateWithOwnerSingleTransaction(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewOrganizationService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "organization_id"}).
			AddRow(10, "owner", nil))

	// 建组织和设管理员在同一事务
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	org, err := service.CreateWithOwner(10, "测试组织", "test-org", "", "")
	require.NoError(t, err)
	assert.Equal(t, uint(5), org.ID)
	assert.Equal(t, "test-org", org.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithOwnerRejectsSecondOrg(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewOrganizationService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "organization_id"}).
			AddRow(10, "owner", int64(3)))

	_, err := service.CreateWithOwner(10, "测试组织", "test-org", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已加入其他组织")
}

func TestDeleteBlockedWhenMembersExist(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewOrganizationService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	err := service.Delete(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "仍有成员")
}
