package services

import (
	"testing"
	"time"

	"modulyn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberRow(id, orgID, userID uint, certifications string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "user_id", "membership_type", "subscription_status", "certifications"}).
		AddRow(id, orgID, userID, models.MembershipRegular, models.SubscriptionActive, []byte(certifications))
}

func TestMemberAddToSetAppends(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(memberRow(6, 1, 20, `["CPA"]`))
	mock.ExpectExec(`UPDATE "members" SET "certifications"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	member, err := service.AddToSet(1, 6, MemberSetCertifications, "CFA")
	require.NoError(t, err)
	assert.JSONEq(t, `["CPA","CFA"]`, string(member.Certifications))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberAddToSetIdempotent(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	// 已存在的项直接返回，不产生UPDATE
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(memberRow(6, 1, 20, `["CPA"]`))

	_, err := service.AddToSet(1, 6, MemberSetCertifications, "CPA")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRemoveFromSetMissingValueNoError(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(memberRow(6, 1, 20, `["CPA"]`))
	mock.ExpectExec(`UPDATE "members" SET "certifications"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	member, err := service.RemoveFromSet(1, 6, MemberSetCertifications, "CFA")
	require.NoError(t, err)
	assert.JSONEq(t, `["CPA"]`, string(member.Certifications))
}

func TestMemberMutateSetRejectsUnknownField(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(memberRow(6, 1, 20, `[]`))

	_, err := service.AddToSet(1, 6, "hobbies", "钓鱼")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无效的集合字段")
}

func TestMemberRenewRejectsEarlierDate(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	current := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "subscription_status", "renewal_date"}).
		AddRow(6, 1, 20, models.SubscriptionPastDue, current)
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(rows)

	_, err := service.Renew(1, 6, current.AddDate(0, -1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "必须晚于")
}

func TestMemberRenewRestoresActive(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewMemberService(db)

	current := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "membership_type", "subscription_status", "renewal_date"}).
		AddRow(6, 1, 20, models.MembershipRegular, models.SubscriptionPastDue, current)
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(6, 1, 1).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "members" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	member, err := service.Renew(1, 6, current.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, member.SubscriptionStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}
