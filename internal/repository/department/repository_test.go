package department

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Artexxx/hr-services/internal/dto"
)

func TestRepository_CRUD(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery("insert into departments").
		WithArgs("Engineering").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("insert into departments").
		WithArgs("Engineering").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery("where name").
		WithArgs("Engineering").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Engineering"))
	mock.ExpectQuery("where id").
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("select exists").
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	id, err := repo.Create(ctx, dto.Department{Name: "Engineering"})
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	_, err = repo.Create(ctx, dto.Department{Name: "Engineering"})
	require.ErrorIs(t, err, dto.ErrAlreadyExists)

	d, err := repo.GetByName(ctx, "Engineering")
	require.NoError(t, err)
	require.EqualValues(t, 1, d.ID)

	_, err = repo.GetByID(ctx, 2)
	require.ErrorIs(t, err, dto.ErrNotFound)

	ok, err := repo.Exists(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
