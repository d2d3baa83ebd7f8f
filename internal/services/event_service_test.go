package services

import (
	"testing"

	"modulyn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func eventRow(id, orgID uint, status string, capacity, current int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "title", "status", "capacity", "current_registrations"}).
		AddRow(id, orgID, "年会", status, capacity, current)
}

func TestEventRegisterTakesSeat(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 10, 4))
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 20, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 .* FOR UPDATE`).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 10, 4))
	mock.ExpectQuery(`INSERT INTO "event_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(15))
	mock.ExpectExec(`UPDATE "events" SET "current_registrations"=current_registrations \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	registration, err := service.Register(1, 3, 20)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, registration.Status)
	assert.Equal(t, models.PaymentUnpaid, registration.PaymentStatus)
	assert.NotEmpty(t, registration.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegisterFullGoesToWaitlist(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 2, 2))
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 20, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// 满员时进候补，不占计数器，事务里没有UPDATE events
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 .* FOR UPDATE`).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 2, 2))
	mock.ExpectQuery(`INSERT INTO "event_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(16))
	mock.ExpectCommit()

	registration, err := service.Register(1, 3, 20)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlist, registration.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegisterClosedRejected(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationClosed, 10, 4))

	_, err := service.Register(1, 3, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不接受报名")
}

func TestEventRegisterDuplicateRejected(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 10, 4))
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 20, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status"}).
			AddRow(15, 3, 20, models.RegistrationConfirmed))

	_, err := service.Register(1, 3, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已报名")
}

func TestEventRegisterLookupFailureReturnsError(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 10, 4))
	// 查重失败不能当成"未报名"继续往下走，否则可能重复占名额
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 20, 1).
		WillReturnError(gorm.ErrInvalidDB)

	_, err := service.Register(1, 3, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrInvalidDB)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCancelPromotesOldestWaitlisted(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 2, 2))
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 20, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status"}).
			AddRow(15, 3, 20, models.RegistrationConfirmed))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "event_registrations" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 让出的名额顺延给最早候补，计数器保持不变
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND status = \$2 ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status"}).
			AddRow(16, 3, 21, models.RegistrationWaitlist))
	mock.ExpectExec(`UPDATE "event_registrations" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.CancelRegistration(1, 3, 20)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCancelWaitlistDoesNotTouchCounter(t *testing.T) {
	db, mock := newTestDB(t)
	service := NewEventService(db)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(3, 1, 1).
		WillReturnRows(eventRow(3, 1, models.EventStatusRegistrationOpen, 2, 2))
	mock.ExpectQuery(`SELECT \* FROM "event_registrations" WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs(3, 21, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status"}).
			AddRow(16, 3, 21, models.RegistrationWaitlist))

	// 候补本来就不占名额，只改状态
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "event_registrations" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.CancelRegistration(1, 3, 21)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
