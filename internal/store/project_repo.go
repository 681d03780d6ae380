package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"irsaliye/pkg/models"
)

// ProjectRepo persists construction-site projects.
type ProjectRepo struct{ DB *sql.DB }

// NewProjectRepo creates a project repository.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// Create inserts a project, assigning an ID when none is set.
func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	const q = `
insert into projects (id, name, location, is_active, created_at)
values ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, q, p.ID, p.Name, p.Location, p.IsActive, p.CreatedAt)
	return err
}

// Get fetches one project by id.
func (r *ProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	const q = `
select id, name, coalesce(location,'') as location, is_active, created_at
from projects
where id = $1`
	var p models.Project
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Location, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects, newest first.
func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	const q = `
select id, name, coalesce(location,'') as location, is_active, created_at
from projects
order by created_at desc`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
