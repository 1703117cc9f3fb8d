package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/models"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Postgres{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestPostgres_CreateCase(t *testing.T) {
	p, mock := newMockPostgres(t)
	c := &models.Case{
		CaseKey: "k1", Status: models.CaseOpen,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	mock.ExpectExec(`INSERT INTO cases`).WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.CreateCase(context.Background(), c)
	require.NoError(t, err)
	require.NotEmpty(t, c.CaseID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResolveCase_RequiresCategoryAndSummary(t *testing.T) {
	p, _ := newMockPostgres(t)
	err := p.ResolveCase(context.Background(), "case-1", "", "summary", nil)
	require.Equal(t, tarkaerrors.CodeResolutionCategoryRequired, tarkaerrors.CodeOf(err))

	err = p.ResolveCase(context.Background(), "case-1", "known_issue", "", nil)
	require.Equal(t, tarkaerrors.CodeResolutionSummaryRequired, tarkaerrors.CodeOf(err))
}

func TestPostgres_CountRunsByFamily_NoTargetFilter(t *testing.T) {
	p, mock := newMockPostgres(t)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM investigation_runs WHERE family = \$1 AND created_at >= \$2`).
		WithArgs("oom_killed", sqlmock.AnyArg()).
		WillReturnRows(rows)

	count, err := p.CountRunsByFamily(context.Background(), "oom_killed", "", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountRunsByFamily_WithTargetFilter(t *testing.T) {
	p, mock := newMockPostgres(t)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM investigation_runs WHERE family = \$1 AND created_at >= \$2 AND workload_name = \$3`).
		WithArgs("oom_killed", sqlmock.AnyArg(), "checkout-worker").
		WillReturnRows(rows)

	count, err := p.CountRunsByFamily(context.Background(), "oom_killed", "checkout-worker", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
