package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"irsaliye/pkg/models"
)

// PhotoRepo persists field photos.
type PhotoRepo struct{ DB *sql.DB }

// NewPhotoRepo creates a photo repository.
func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{DB: db} }

// Create inserts a photo record, assigning an ID when none is set.
func (r *PhotoRepo) Create(ctx context.Context, p *models.FieldPhoto) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.TakenAt.IsZero() {
		p.TakenAt = p.CreatedAt
	}
	const q = `
insert into field_photos (id, project_id, storage_key, url, caption, taken_at, created_at)
values ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, q,
		p.ID, p.ProjectID, p.StorageKey, p.URL, p.Caption, p.TakenAt, p.CreatedAt)
	return err
}

// ListByProject returns a project's photos, newest first.
func (r *PhotoRepo) ListByProject(ctx context.Context, projectID string) ([]models.FieldPhoto, error) {
	const q = `
select id, project_id, storage_key, coalesce(url,'') as url, coalesce(caption,'') as caption,
       taken_at, created_at
from field_photos
where project_id = $1
order by created_at desc`
	rows, err := r.DB.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.FieldPhoto
	for rows.Next() {
		var p models.FieldPhoto
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.StorageKey, &p.URL, &p.Caption, &p.TakenAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
