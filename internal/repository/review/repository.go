package review

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

func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
create table if not exists reviews (
  id          bigserial primary key,
  title       text not null,
  description text not null default '',
  rating      double precision not null,
  employee_id bigint not null
);
create index if not exists reviews_employee_id_idx on reviews (employee_id);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) Create(ctx context.Context, rv dto.Review) (int64, error) {
	q := `
INSERT INTO reviews
	(title, description, rating, employee_id)
VALUES
	($1, $2, $3, $4)
RETURNING id;
`
	var id int64
	if err := r.pool.QueryRow(ctx, q, rv.Title, rv.Description, rv.Rating, rv.EmployeeID).Scan(&id); err != nil {
		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return id, nil
}

func (r *Repository) Update(ctx context.Context, rv dto.Review) error {
	q := `
UPDATE reviews SET
	title = $2,
	description = $3,
	rating = $4
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, rv.ID, rv.Title, rv.Description, rv.Rating)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*dto.Review, error) {
	q := `SELECT id, title, description, rating, employee_id FROM reviews WHERE id = $1`

	var out dto.Review
	err := r.pool.QueryRow(ctx, q, id).Scan(&out.ID, &out.Title, &out.Description, &out.Rating, &out.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &out, nil
}

// ListByEmployee returns the full review set of an employee, oldest first.
func (r *Repository) ListByEmployee(ctx context.Context, employeeID int64) ([]dto.Review, error) {
	q := `SELECT id, title, description, rating, employee_id FROM reviews WHERE employee_id = $1 ORDER BY id`

	return r.list(ctx, q, employeeID)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]dto.Review, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.Review, 0)
	for rows.Next() {
		var rv dto.Review
		if err := rows.Scan(&rv.ID, &rv.Title, &rv.Description, &rv.Rating, &rv.EmployeeID); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}
