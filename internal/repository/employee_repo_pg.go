package repository

import (
	"context"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EmployeeRepository interface {
	Upsert(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
}

type PGEmployeeRepository struct {
	db *pgxpool.Pool
}

func NewEmployeeRepository(db *pgxpool.Pool) EmployeeRepository {
	return &PGEmployeeRepository{db: db}
}

// Upsert creates the employee on first login and keeps an existing
// display name when a later login omits it.
func (r *PGEmployeeRepository) Upsert(ctx context.Context, employee *domain.Employee) error {
	return r.db.QueryRow(ctx, `INSERT INTO employees (id, display_name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), employees.display_name)
		RETURNING display_name, created_at`,
		employee.ID, employee.DisplayName).Scan(&employee.DisplayName, &employee.CreatedAt)
}

func (r *PGEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT id, display_name, created_at FROM employees WHERE id=$1`, id)
	var e domain.Employee
	if err := row.Scan(&e.ID, &e.DisplayName, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

var _ EmployeeRepository = (*PGEmployeeRepository)(nil)
