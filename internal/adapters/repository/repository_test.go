package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/adapters/repository"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var userRowColumns = []string{
	"id", "name", "email", "password_hash", "role", "status", "temporary_password",
	"assigned_space_id", "last_password_change", "created_at", "updated_at",
}

func TestUserRepository_FindByEmail_NormalizesAddress(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE lower(email) = $1`)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "Ana", "Ana@Example.com", "hash", "admin", "active", false, nil, now, now, now))

	user, err := repo.FindByEmail(context.Background(), "  ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, domain.StatusActive, user.Status)
	assert.Nil(t, user.AssignedSpaceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), domain.User{ID: "u-2", Email: "dup@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete_NoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs("u-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "u-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_ComposesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE role = $1 AND status = $2 ORDER BY name`)).
		WithArgs(domain.RoleTablet, domain.StatusPending).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.List(context.Background(), domain.UserFilter{Role: domain.RoleTablet, Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_List_ComposesFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.ReservationFilter
		query  string
		args   int
	}{
		{
			name:  "no filters",
			query: `FROM reservations ORDER BY start_time`,
		},
		{
			name:   "space only",
			filter: domain.ReservationFilter{SpaceID: "sala-1"},
			query:  `FROM reservations WHERE space_id = $1 ORDER BY start_time`,
			args:   1,
		},
		{
			name: "all predicates",
			filter: domain.ReservationFilter{
				SpaceID: "sala-1",
				UserID:  "u-1",
				From:    timePtr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
				To:      timePtr(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
			},
			query: `WHERE space_id = $1 AND user_id = $2 AND start_time >= $3 AND end_time <= $4 ORDER BY start_time`,
			args:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := repository.NewReservationRepository(db)

			args := make([]driver.Value, tt.args)
			for i := range args {
				args[i] = sqlmock.AnyArg()
			}
			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if tt.args > 0 {
				expect = expect.WithArgs(args...)
			}
			expect.WillReturnRows(sqlmock.NewRows([]string{"id"}))

			_, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReservationRepository_OrganizationUsage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewReservationRepository(db)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lower(organization) = lower($1)`)).
		WithArgs("Coro", from, to, "r-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5400.0))

	usage, err := repo.OrganizationUsage(context.Background(), "Coro", from, to, "r-1")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, usage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_FindOverlapping_IgnoresCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewReservationRepository(db)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`start_time < $3 AND end_time > $2`)+`(?s).*status <> 'cancelled'`).
		WithArgs("sala-1", start, end, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	overlapping, err := repo.FindOverlapping(context.Background(), "sala-1", start, end, "")
	require.NoError(t, err)
	assert.Empty(t, overlapping)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_WithinSpaceLock_SharesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewReservationRepository(db)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE space_id = $1 AND start_time < $3 AND end_time > $2`)).
		WithArgs("1", start, end, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinSpaceLock(context.Background(), "1", func(ctx context.Context) error {
		clashes, err := repo.FindOverlapping(ctx, "1", start, end, "")
		if err != nil {
			return err
		}
		assert.Empty(t, clashes)
		return repo.Create(ctx, domain.Reservation{ID: "r-1", SpaceID: "1", StartTime: start, EndTime: end})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_WithinSpaceLock_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewReservationRepository(db)
	conflict := domain.Conflict("El espacio ya está reservado en ese horario")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`pg_advisory_xact_lock`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinSpaceLock(context.Background(), "1", func(ctx context.Context) error {
		return conflict
	})
	assert.Same(t, conflict, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationLogRepository_ListFailures_SkipsDelivered(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		query  string
		args   int
	}{
		{
			name:  "all users",
			query: `WHERE (processed_at IS NULL OR last_error <> '') ORDER BY created_at DESC`,
		},
		{
			name:   "one user",
			userID: "u-1",
			query:  `WHERE (processed_at IS NULL OR last_error <> '') AND aggregate_id = $1 ORDER BY created_at DESC`,
			args:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := repository.NewNotificationLogRepository(db)

			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if tt.args > 0 {
				expect = expect.WithArgs(tt.userID)
			}
			expect.WillReturnRows(sqlmock.NewRows([]string{"id"}))

			failures, err := repo.ListFailures(context.Background(), tt.userID)
			require.NoError(t, err)
			assert.Empty(t, failures)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSpaceRepository_FindByID_MapsTag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSpaceRepository(db)

	columns := []string{"id", "name", "description", "capacity", "allowed_days", "open_time", "close_time", "tag_id", "tag_name", "tag_color"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.id = $1`)).
		WithArgs("sala-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("sala-1", "Sala 1", "", 20, "{1,2,3}", "08:00", "20:00", "t-1", "Ensayo", "#ff0000"))

	space, err := repo.FindByID(context.Background(), "sala-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, space.AllowedDays)
	require.NotNil(t, space.Tag)
	assert.Equal(t, "Ensayo", space.Tag.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpaceRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSpaceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationLogRepository_RecordFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewNotificationLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO outbox_events`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordFailure(context.Background(), domain.NotificationFailure{
		ID:     "n-1",
		UserID: "u-1",
		Event:  domain.EventPasswordReset,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationLogRepository_RecordFailure_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewNotificationLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO outbox_events`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.RecordFailure(context.Background(), domain.NotificationFailure{ID: "n-1"})
	assert.Error(t, err)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
