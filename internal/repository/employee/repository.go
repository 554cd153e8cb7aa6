package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Artexxx/hr-services/internal/dto"
)

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool PgxPoolIface
}

func NewRepository(pool PgxPoolIface) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `id, first_name, last_name, email, department_id, average_rating, rating_updated_at`

func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
create table if not exists employees (
  id                bigserial primary key,
  first_name        text not null,
  last_name         text not null default '',
  email             text not null unique,
  department_id     bigint not null,
  average_rating    double precision,
  rating_updated_at timestamptz
);
create index if not exists employees_department_id_idx on employees (department_id);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) Create(ctx context.Context, e dto.Employee) (int64, error) {
	query := `
insert into employees
  (first_name, last_name, email, department_id)
values
  ($1, $2, $3, $4)
returning id;
`
	var id int64
	err := r.pool.QueryRow(ctx, query, e.FirstName, e.LastName, e.Email, e.DepartmentID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, dto.ErrAlreadyExists
		}

		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return id, nil
}

// Update never touches the rating columns; they belong to the rating consumer.
func (r *Repository) Update(ctx context.Context, e dto.Employee) error {
	query := `
update employees set
  first_name    = $2,
  last_name     = $3,
  email         = $4,
  department_id = $5
where id = $1;
`
	tag, err := r.pool.Exec(ctx, query, e.ID, e.FirstName, e.LastName, e.Email, e.DepartmentID)
	if err != nil {
		if isUniqueViolation(err) {
			return dto.ErrAlreadyExists
		}

		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `delete from employees where id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*dto.Employee, error) {
	query := `select ` + selectColumns + ` from employees where id = $1;`

	var out dto.Employee
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&out.ID,
		&out.FirstName,
		&out.LastName,
		&out.Email,
		&out.DepartmentID,
		&out.AverageRating,
		&out.RatingUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &out, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `select exists(select 1 from employees where id = $1);`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("row.Scan: %w", err)
	}

	return ok, nil
}

func (r *Repository) List(ctx context.Context) ([]dto.Employee, error) {
	query := `select ` + selectColumns + ` from employees order by id;`

	return r.list(ctx, query)
}

func (r *Repository) ListByDepartment(ctx context.Context, departmentID int64) ([]dto.Employee, error) {
	query := `select ` + selectColumns + ` from employees where department_id = $1 order by id;`

	return r.list(ctx, query, departmentID)
}

// UpdateAverageRating overwrites the derived rating. Concurrent writers race
// with last-write-wins; each writer computed from a full review set.
func (r *Repository) UpdateAverageRating(ctx context.Context, id int64, average float64) error {
	query := `
update employees set
  average_rating    = $2,
  rating_updated_at = now()
where id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, average)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]dto.Employee, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.Employee, 0)
	for rows.Next() {
		var e dto.Employee

		err = rows.Scan(
			&e.ID,
			&e.FirstName,
			&e.LastName,
			&e.Email,
			&e.DepartmentID,
			&e.AverageRating,
			&e.RatingUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}
