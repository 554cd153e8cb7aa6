package department

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
create table if not exists departments (
  id   bigserial primary key,
  name text not null unique
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) Create(ctx context.Context, d dto.Department) (int64, error) {
	query := `insert into departments (name) values ($1) returning id;`

	var id int64
	if err := r.pool.QueryRow(ctx, query, d.Name).Scan(&id); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return 0, dto.ErrAlreadyExists
		}

		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return id, nil
}

func (r *Repository) Update(ctx context.Context, d dto.Department) error {
	query := `update departments set name = $2 where id = $1;`

	tag, err := r.pool.Exec(ctx, query, d.ID, d.Name)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
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
	tag, err := r.pool.Exec(ctx, `delete from departments where id = $1`, id)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrNotFound
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*dto.Department, error) {
	return r.getOne(ctx, `select id, name from departments where id = $1;`, id)
}

func (r *Repository) GetByName(ctx context.Context, name string) (*dto.Department, error) {
	return r.getOne(ctx, `select id, name from departments where name = $1;`, name)
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `select exists(select 1 from departments where id = $1);`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("row.Scan: %w", err)
	}

	return ok, nil
}

func (r *Repository) List(ctx context.Context) ([]dto.Department, error) {
	rows, err := r.pool.Query(ctx, `select id, name from departments order by id;`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.Department, 0)
	for rows.Next() {
		var d dto.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*dto.Department, error) {
	var out dto.Department
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&out.ID, &out.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &out, nil
}
